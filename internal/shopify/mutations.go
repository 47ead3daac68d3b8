package shopify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"shopgen/internal/domain"
)

const (
	defaultVendor      = "AI Generated"
	defaultProductType = "AI Product"
)

const productCreateMutation = `mutation productCreate($input: ProductInput!) {
  productCreate(input: $input) {
    product { id title handle }
    userErrors { field message }
  }
}`

const variantsBulkCreateMutation = `mutation productVariantsBulkCreate($productId: ID!, $variants: [ProductVariantsBulkInput!]!, $strategy: ProductVariantsBulkCreateStrategy) {
  productVariantsBulkCreate(productId: $productId, variants: $variants, strategy: $strategy) {
    productVariants { id title price }
    userErrors { field message }
  }
}`

const stagedUploadCreateMutation = `mutation stagedUploadCreate($input: [StagedUploadInput!]!) {
  stagedUploadCreate(input: $input) {
    stagedTargets { url resourceUrl parameters { name value } }
    userErrors { field message }
  }
}`

const productCreateMediaMutation = `mutation productCreateMedia($productId: ID!, $media: [CreateMediaInput!]!) {
  productCreateMedia(productId: $productId, media: $media) {
    media { ... on MediaImage { id } }
    mediaUserErrors { field message }
  }
}`

// CreatedProduct is the subset of the product returned by productCreate.
type CreatedProduct struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

type seoInput struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type productInput struct {
	Title           string    `json:"title"`
	DescriptionHTML string    `json:"descriptionHtml"`
	Tags            []string  `json:"tags"`
	Vendor          string    `json:"vendor"`
	ProductType     string    `json:"productType"`
	Status          string    `json:"status"`
	SEO             *seoInput `json:"seo,omitempty"`
}

// CreateProduct issues productCreate. Shopify adds a standalone default
// variant which CreateVariants later replaces.
func (c *Client) CreateProduct(ctx context.Context, p domain.CanonicalProduct) (*CreatedProduct, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	input := productInput{
		Title:           p.Title,
		DescriptionHTML: p.DescriptionHTML,
		Tags:            tags,
		Vendor:          defaultVendor,
		ProductType:     defaultProductType,
		Status:          "ACTIVE",
	}
	if p.SEO.Title != "" || p.SEO.Description != "" {
		input.SEO = &seoInput{Title: p.SEO.Title, Description: p.SEO.Description}
	}
	var out struct {
		ProductCreate struct {
			Product    *CreatedProduct `json:"product"`
			UserErrors []UserError     `json:"userErrors"`
		} `json:"productCreate"`
	}
	if err := c.Do(ctx, productCreateMutation, map[string]any{"input": input}, &out); err != nil {
		return nil, err
	}
	if err := checkUserErrors("productCreate", out.ProductCreate.UserErrors); err != nil {
		return nil, err
	}
	if out.ProductCreate.Product == nil || out.ProductCreate.Product.ID == "" {
		return nil, fmt.Errorf("shopify: productCreate returned no product")
	}
	return out.ProductCreate.Product, nil
}

type optionValueInput struct {
	OptionName string `json:"optionName"`
	Name       string `json:"name"`
}

type variantInput struct {
	Price          string             `json:"price"`
	CompareAtPrice *string            `json:"compareAtPrice"`
	OptionValues   []optionValueInput `json:"optionValues"`
}

func variantInputs(variants []domain.Variant) []variantInput {
	out := make([]variantInput, 0, len(variants))
	for _, v := range variants {
		price := strings.TrimSpace(v.Price)
		if price == "" {
			price = "0.00"
		}
		option := strings.TrimSpace(v.Option1)
		if option == "" {
			option = "Default"
		}
		in := variantInput{
			Price:        price,
			OptionValues: []optionValueInput{{OptionName: "Title", Name: option}},
		}
		if cmp := strings.TrimSpace(v.CompareAtPrice); cmp != "" {
			in.CompareAtPrice = &cmp
		}
		out = append(out, in)
	}
	return out
}

// CreateVariants attaches variants, removing Shopify's standalone default variant.
func (c *Client) CreateVariants(ctx context.Context, productID string, variants []domain.Variant) error {
	if len(variants) == 0 {
		return nil
	}
	vars := map[string]any{
		"productId": productID,
		"variants":  variantInputs(variants),
		"strategy":  "REMOVE_STANDALONE_VARIANT",
	}
	var out struct {
		ProductVariantsBulkCreate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productVariantsBulkCreate"`
	}
	if err := c.Do(ctx, variantsBulkCreateMutation, vars, &out); err != nil {
		return err
	}
	return checkUserErrors("productVariantsBulkCreate", out.ProductVariantsBulkCreate.UserErrors)
}

// StagedTarget is where a binary upload must be POSTed before it can be
// referenced as media.
type StagedTarget struct {
	URL         string `json:"url"`
	ResourceURL string `json:"resourceUrl"`
	Parameters  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"parameters"`
}

// UploadImage stages data through stagedUploadCreate, posts it to the staged
// target and returns the resource URL usable as originalSource.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	vars := map[string]any{
		"input": []map[string]any{{
			"resource":   "IMAGE",
			"filename":   filename,
			"mimeType":   "image/png",
			"httpMethod": "POST",
		}},
	}
	var out struct {
		StagedUploadCreate struct {
			StagedTargets []StagedTarget `json:"stagedTargets"`
			UserErrors    []UserError    `json:"userErrors"`
		} `json:"stagedUploadCreate"`
	}
	if err := c.Do(ctx, stagedUploadCreateMutation, vars, &out); err != nil {
		return "", err
	}
	if err := checkUserErrors("stagedUploadCreate", out.StagedUploadCreate.UserErrors); err != nil {
		return "", err
	}
	if len(out.StagedUploadCreate.StagedTargets) == 0 || out.StagedUploadCreate.StagedTargets[0].URL == "" {
		return "", fmt.Errorf("%w: no staged upload target", domain.ErrUpload)
	}
	target := out.StagedUploadCreate.StagedTargets[0]
	if err := c.postStaged(ctx, target, filename, data); err != nil {
		return "", err
	}
	return target.ResourceURL, nil
}

func (c *Client) postStaged(ctx context.Context, target StagedTarget, filename string, data []byte) error {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, p := range target.Parameters {
		if err := mw.WriteField(p.Name, p.Value); err != nil {
			return fmt.Errorf("%w: write field: %v", domain.ErrUpload, err)
		}
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("%w: create part: %v", domain.ErrUpload, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("%w: write part: %v", domain.ErrUpload, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%w: close multipart: %v", domain.ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrUpload, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("%w: staged upload status %d: %s", domain.ErrUpload, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

type mediaInput struct {
	MediaContentType string `json:"mediaContentType"`
	OriginalSource   string `json:"originalSource"`
	Alt              string `json:"alt"`
}

// CreateMedia attaches hosted images to the product in order.
func (c *Client) CreateMedia(ctx context.Context, productID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	media := make([]mediaInput, 0, len(urls))
	for i, u := range urls {
		media = append(media, mediaInput{
			MediaContentType: "IMAGE",
			OriginalSource:   u,
			Alt:              fmt.Sprintf("Product image %d", i+1),
		})
	}
	var out struct {
		ProductCreateMedia struct {
			MediaUserErrors []UserError `json:"mediaUserErrors"`
		} `json:"productCreateMedia"`
	}
	if err := c.Do(ctx, productCreateMediaMutation, map[string]any{"productId": productID, "media": media}, &out); err != nil {
		return err
	}
	return checkUserErrors("productCreateMedia", out.ProductCreateMedia.MediaUserErrors)
}
