package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/coursemind/coursemind/internal/log"
)

// RetryConfig configures the retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultRetryConfig returns sensible defaults for model API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Config contains all required parameters for the generation client.
type Config struct {
	Genkit    *genkit.Genkit
	Logger    log.Logger
	ModelName string // Provider-qualified model name (e.g., "googleai/gemini-2.5-flash")

	// Resilience configuration
	Retry       RetryConfig    // Zero-value uses defaults
	Breaker     BreakerConfig  // Zero-value uses defaults
	RateLimiter *rate.Limiter  // Optional: proactive rate limiting (nil = unlimited)

	// HistoryTokens caps conversation history per request (0 = default).
	HistoryTokens int
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Client is the single entry point to the generation model. It owns the
// resilience stack (rate limiter, retry, circuit breaker) so that callers
// never talk to the provider directly.
//
// Client is stateless apart from breaker accounting and is safe for
// concurrent use.
type Client struct {
	g             *genkit.Genkit
	logger        log.Logger
	modelName     string
	retry         RetryConfig
	breaker       *CircuitBreaker
	limiter       *rate.Limiter
	historyTokens int
}

// NewClient builds a generation client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("llm client config: %w", err)
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}
	historyTokens := cfg.HistoryTokens
	if historyTokens <= 0 {
		historyTokens = DefaultHistoryTokens
	}
	return &Client{
		g:             cfg.Genkit,
		logger:        cfg.Logger,
		modelName:     cfg.ModelName,
		retry:         retry,
		breaker:       NewCircuitBreaker(cfg.Breaker),
		limiter:       cfg.RateLimiter,
		historyTokens: historyTokens,
	}, nil
}

// ChatRequest carries one conversational generation call.
type ChatRequest struct {
	System  string
	History []Turn
	Message string
	Images  []string // base64 data URIs attached to the current message
}

// StreamChat streams the model's answer fragment by fragment. The
// sequence yields text fragments in order; a non-nil error is yielded at
// most once, as the final element. Abandoning the sequence early cancels
// the upstream call.
//
// Streaming calls are not retried: fragments already delivered cannot be
// unwound, so a mid-stream failure surfaces to the caller instead.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := c.breaker.Allow(); err != nil {
			yield("", fmt.Errorf("%w: %w", ErrUnavailable, err))
			return
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				yield("", fmt.Errorf("rate limit wait: %w", err))
				return
			}
		}

		msgs, err := c.buildMessages(req)
		if err != nil {
			yield("", err)
			return
		}

		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		fragments := make(chan string)
		done := make(chan error, 1)

		go func() {
			defer close(fragments)
			_, genErr := genkit.Generate(streamCtx, c.g,
				ai.WithModelName(c.modelName),
				ai.WithSystem(req.System),
				ai.WithMessages(msgs...),
				ai.WithStreaming(func(cbCtx context.Context, chunk *ai.ModelResponseChunk) error {
					for _, part := range chunk.Content {
						if part.Text == "" {
							continue
						}
						select {
						case fragments <- part.Text:
						case <-streamCtx.Done():
							return streamCtx.Err()
						}
					}
					return nil
				}),
			)
			done <- genErr
		}()

		for fragment := range fragments {
			if !yield(fragment, nil) {
				cancel()
				for range fragments {
				}
				<-done
				return
			}
		}

		if genErr := <-done; genErr != nil {
			c.breaker.Failure()
			yield("", Classify(genErr))
			return
		}
		c.breaker.Success()
	}
}

// GenerateText runs a one-shot text generation with the full resilience
// stack.
func (c *Client) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.generate(ctx,
		ai.WithModelName(c.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GenerateStructured runs a generation constrained to T's JSON schema and
// decodes the model output into it.
func GenerateStructured[T any](ctx context.Context, c *Client, system, prompt string) (*T, error) {
	var shape T
	resp, err := c.generate(ctx,
		ai.WithModelName(c.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
		ai.WithOutputType(shape),
	)
	if err != nil {
		return nil, err
	}
	var out T
	if err := resp.Output(&out); err != nil {
		return nil, fmt.Errorf("decode structured output: %w", err)
	}
	return &out, nil
}

// generate executes a non-streaming call with exponential backoff retry.
// Each attempt is rate limited individually so retries cannot bypass the
// limiter. Quota errors fail immediately: retrying them in-process only
// burns the remaining budget.
func (c *Client) generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := genkit.Generate(ctx, c.g, opts...)
		if err == nil {
			c.breaker.Success()
			c.logger.Debug("generation succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return resp, nil
		}

		lastErr = Classify(err)
		c.breaker.Failure()

		if !retryable(lastErr) {
			return nil, lastErr
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Debug("retrying generation",
			"attempt", attempt+1,
			"delay", delay,
			"error", lastErr,
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("generation canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay = min(delay*2, c.retry.MaxInterval)
	}

	return nil, fmt.Errorf("generation failed after %d attempts: %w", c.retry.MaxRetries+1, lastErr)
}

func (c *Client) buildMessages(req ChatRequest) ([]*ai.Message, error) {
	msgs, err := toMessages(truncateHistory(req.History, c.historyTokens))
	if err != nil {
		return nil, fmt.Errorf("conversation history: %w", err)
	}
	current, err := turnParts(Turn{Role: RoleUser, Content: req.Message, Images: req.Images})
	if err != nil {
		return nil, fmt.Errorf("current message: %w", err)
	}
	return append(msgs, ai.NewUserMessage(current...)), nil
}
