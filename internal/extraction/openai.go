package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

const defaultOpenAIModel = "gpt-4o-mini"

// openAIService implements Service through langchaingo's OpenAI-compatible
// chat client. It is used for deployments that route extraction through an
// OpenAI endpoint or a compatible proxy.
type openAIService struct {
	llm        *openai.LLM
	limiter    *rate.Limiter
	maxRetries int
}

// newOpenAIService creates a new OpenAI-backed extraction service.
func newOpenAIService(cfg Config) (Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &openAIService{
		llm:        llm,
		limiter:    rate.NewLimiter(rate.Limit(limit), burst),
		maxRetries: maxRetries,
	}, nil
}

// Generate sends one prompt (and optional image as a data URI) to the model.
func (o *openAIService) Generate(ctx context.Context, req Request) (Response, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limiter error: %w", err)
	}

	parts := []llms.ContentPart{llms.TextContent{Text: req.Prompt}}
	if req.Media != nil {
		uri := fmt.Sprintf("data:%s;base64,%s",
			req.Media.MIMEType, base64.StdEncoding.EncodeToString(req.Media.Data))
		parts = append(parts, llms.ImageURLContent{URL: uri})
	}

	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}

	callOpts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxOutputTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxOutputTokens))
	}

	// langchaingo surfaces transport and API errors uniformly, so every
	// failure is treated as retryable up to the bound.
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Response{}, ctx.Err()
			}
		}

		resp, err := o.llm.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return Response{}, ctx.Err()
			}
			continue
		}

		if len(resp.Choices) == 0 {
			return Response{}, fmt.Errorf("empty response from API")
		}
		return Response{Text: resp.Choices[0].Content}, nil
	}

	return Response{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Available returns true once the client is constructed.
func (o *openAIService) Available() bool {
	return o.llm != nil
}

var _ Service = (*openAIService)(nil)
