package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrMissingCredential = errors.New("missing credential")
	ErrGeneration        = errors.New("product generation failed")
	ErrEmptyResponse     = errors.New("empty model response")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrImageProvider     = errors.New("image provider failure")
	ErrUpload            = errors.New("image upload failed")
)

// ValidationError reports which caller-supplied field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MissingCredentialError names the configuration value that was absent.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s is missing", e.Name)
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// GenerationError is a fatal failure of the text path. Raw holds the model
// output (if any) for operator logs; it is never part of Error().
type GenerationError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation failed at %s", e.Stage)
	}
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
