// Package ai is the completion service used by the instruction stages. It
// wraps the Anthropic Messages API with retry and exponential backoff, a
// circuit breaker, a concurrency cap and a request rate limit.
package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/steveyegge/curator/internal/config"
)

// DefaultModel is used when neither the config file nor CURATOR_MODEL names one.
const DefaultModel = "claude-sonnet-4-5-20250929"

// messageSender is the part of the Anthropic client the completion path uses.
type messageSender interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client implements pipeline.Completer.
type Client struct {
	messages messageSender
	model    string
	retry    RetryConfig
	breaker  *CircuitBreaker
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	log      *zap.Logger
}

// Config holds client configuration
type Config struct {
	APIKey string // Anthropic API key (if empty, reads from ANTHROPIC_API_KEY env var)
	Model  string // Model to use (default: DefaultModel)
	Retry  RetryConfig
	Logger *zap.Logger
}

// FromSettings builds a client Config from the ai section of the curator config.
func FromSettings(settings config.AIConfig, log *zap.Logger) *Config {
	retry := DefaultRetryConfig()
	if settings.Timeout > 0 {
		retry.Timeout = settings.Timeout
	}
	return &Config{Model: settings.Model, Retry: retry, Logger: log}
}

// NewClient creates a completion client. It fails when no API key is available.
func NewClient(cfg *Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newClient(&client.Messages, cfg), nil
}

func newClient(messages messageSender, cfg *Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.Timeout == 0 {
		retry = DefaultRetryConfig()
	}

	c := &Client{
		messages: messages,
		model:    model,
		retry:    retry,
		log:      log.Named("ai"),
	}
	if retry.CircuitBreakerEnabled {
		c.breaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout, c.log)
	}
	if retry.MaxConcurrentCalls > 0 {
		c.sem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}
	if retry.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(retry.RequestsPerSecond), max(retry.Burst, 1))
	}
	c.log.Debug("completion client initialized",
		zap.String("model", model),
		zap.Int("max_retries", retry.MaxRetries),
		zap.Int("max_concurrent", retry.MaxConcurrentCalls),
		zap.Float64("requests_per_second", retry.RequestsPerSecond))
	return c
}

// Model returns the model the client sends requests to.
func (c *Client) Model() string { return c.model }

// HealthCheck fails while the circuit breaker is open.
func (c *Client) HealthCheck() error {
	if c.breaker == nil {
		return nil
	}
	if state, failures, _ := c.breaker.Metrics(); state == CircuitOpen {
		return fmt.Errorf("completion service unavailable: %w (failures=%d, retry in %v)",
			ErrCircuitOpen, failures, c.retry.OpenTimeout)
	}
	return nil
}

// Complete sends a single-turn prompt and returns the concatenated text blocks
// of the reply.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	start := time.Now()
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	var response *anthropic.Message
	err := c.retryWithBackoff(ctx, "complete", func(attemptCtx context.Context) error {
		resp, apiErr := c.messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:       anthropic.Model(c.model),
			MaxTokens:   int64(maxTokens),
			Temperature: anthropic.Float(temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	c.log.Debug("completion call",
		zap.Int64("input_tokens", response.Usage.InputTokens),
		zap.Int64("output_tokens", response.Usage.OutputTokens),
		zap.Duration("duration", time.Since(start)))
	return strings.TrimSpace(text.String()), nil
}
