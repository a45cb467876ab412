package ai

import (
	"context"
)

// GenerateRequest describes a single text generation call
type GenerateRequest struct {
	Model        string
	Prompt       string
	SearchGround bool // Enable search augmentation (grounding) for this call
}

// GenerateResponse is the text output of a generation call plus its attribution
type GenerateResponse struct {
	Text      string
	Citations []string // Source URLs in the order the provider reported them
}

// FirstCitation returns the first attribution URL, or "" when none was reported
func (r *GenerateResponse) FirstCitation() string {
	if r == nil || len(r.Citations) == 0 {
		return ""
	}
	return r.Citations[0]
}

// ContentGenerator defines the interface for single-shot text generation
type ContentGenerator interface {
	// GenerateContent sends the prompt to the model and returns its text response
	GenerateContent(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}
