// Package extraction provides the client contract for the external AI
// extraction service (OCR, entity extraction, normalization prompts) used by
// the appointment pipeline. It supports a native Gemini REST client and an
// OpenAI-compatible client selected by configuration.
package extraction

import (
	"context"
)

// Media carries image bytes attached to a multimodal request.
type Media struct {
	Data     []byte
	MIMEType string
}

// Request is a single prompt sent to the extraction service.
type Request struct {
	Prompt          string
	Media           *Media
	Temperature     float64
	MaxOutputTokens int
}

// Response is the raw text blob returned by the extraction service. Stages
// post-process it themselves (confidence marker, embedded JSON span).
type Response struct {
	Text string
}

// Service is the extraction collaborator the pipeline depends on.
//
// Every failure from Generate is recoverable from the pipeline's point of
// view: stages degrade their result rather than propagate the error.
type Service interface {
	// Generate sends one prompt (optionally with media) and returns the
	// service's text response.
	Generate(ctx context.Context, req Request) (Response, error)

	// Available returns true if the service is configured and ready.
	Available() bool
}

// Config holds provider configuration for the extraction service.
type Config struct {
	Provider string `json:"provider"` // "googleai", "openai", "disabled"

	Model   string `json:"model,omitempty"`
	APIKey  string `json:"-"`
	BaseURL string `json:"base_url,omitempty"`

	// Timeout is the per-call HTTP timeout in seconds.
	Timeout    int `json:"timeout,omitempty"`
	MaxRetries int `json:"max_retries,omitempty"`

	// RateLimit is requests per second; Burst is the limiter burst size.
	RateLimit float64 `json:"rate_limit,omitempty"`
	Burst     int     `json:"burst,omitempty"`
}
