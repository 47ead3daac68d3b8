package image

import (
	"fmt"
	"strconv"
	"time"
)

const placeholderURLFormat = "https://picsum.photos/seed/%s/800/800"

// Placeholders returns count distinct stock image URLs. The seed combines a
// nanosecond timestamp with the index so repeated calls never collide within
// a batch and rarely collide across batches.
func Placeholders(count int) []string {
	return placeholdersAt(time.Now(), count)
}

func placeholdersAt(now time.Time, count int) []string {
	if count <= 0 {
		return []string{}
	}
	base := strconv.FormatInt(now.UnixNano(), 36)
	out := make([]string, count)
	for i := range out {
		out[i] = PlaceholderURL(base + "-" + strconv.Itoa(i))
	}
	return out
}

// PlaceholderURL renders the stock image URL for one seed token.
func PlaceholderURL(token string) string {
	return fmt.Sprintf(placeholderURLFormat, token)
}
