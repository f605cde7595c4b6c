package extraction

import (
	"context"
	"errors"
	"fmt"
)

// ErrDisabled is returned by the disabled service for every call.
var ErrDisabled = errors.New("extraction service disabled")

// NewService creates an extraction service based on configuration.
func NewService(cfg Config) (Service, error) {
	switch cfg.Provider {
	case "", "googleai":
		return newGeminiService(cfg)
	case "openai":
		return newOpenAIService(cfg)
	case "disabled":
		return &DisabledService{}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// DisabledService fails every call. Stages degrade to their failure paths,
// which keeps the daemon bootable without credentials.
type DisabledService struct{}

// Generate always returns ErrDisabled.
func (d *DisabledService) Generate(ctx context.Context, req Request) (Response, error) {
	return Response{}, ErrDisabled
}

// Available returns false for DisabledService.
func (d *DisabledService) Available() bool {
	return false
}

var _ Service = (*DisabledService)(nil)
