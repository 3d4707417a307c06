package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	invocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hireloop",
		Subsystem: "ai",
		Name:      "invocation_duration_seconds",
		Help:      "Duration of model invocation attempts",
	}, []string{"model", "agent"})

	invocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireloop",
		Subsystem: "ai",
		Name:      "invocation_failures_total",
		Help:      "Number of failed model invocation attempts",
	}, []string{"model", "agent"})
)

// InvokerConfig defines configuration options for the OpenAI-backed invoker.
type InvokerConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float32
	MaxRetries     int
	RetryBackoff   time.Duration
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIInvoker implements Invoker against the OpenAI chat completion API with
// a bounded retry loop around each invocation.
type OpenAIInvoker struct {
	client chatCompleter
	cfg    InvokerConfig
	audit  AuditRecorder
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIInvoker builds a new invoker using the provided configuration. The audit
// recorder may be nil, in which case attempts are not persisted.
func NewOpenAIInvoker(cfg InvokerConfig, audit AuditRecorder) (*OpenAIInvoker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIInvoker{
		client: client,
		cfg:    cfg,
		audit:  audit,
		tracer: otel.Tracer("github.com/hireloop/hireloop-api/pkg/ai"),
		logger: logger.With().Str("component", "model_invoker").Logger(),
	}, nil
}

// Invoke sends the prompt to the backend, retrying transport failures with the same
// prompt up to MaxRetries additional times. Cancellation is checked between attempts.
func (v *OpenAIInvoker) Invoke(parent context.Context, prompt string, params GenerationParams) (string, error) {
	model := params.Model
	if model == "" {
		model = v.cfg.Model
	}

	ctx, span := v.tracer.Start(parent, "ai.invoke", trace.WithAttributes(
		attribute.String("model", model),
		attribute.String("agent", params.Agent),
	))
	defer span.End()

	budget := v.cfg.MaxRetries + 1
	attempts := 0

	var lastErr error
	for attempts < budget {
		if attempts > 0 {
			if err := v.wait(ctx, attempts); err != nil {
				lastErr = err
				break
			}
		}

		attempts++
		text, err := v.attempt(ctx, prompt, model, params)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempts))
			return text, nil
		}

		lastErr = err
		v.logger.Warn().Err(err).
			Str("agent", params.Agent).
			Int("attempt", attempts).
			Int("budget", budget).
			Msg("model invocation attempt failed")
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())

	return "", &InvokeError{Attempts: attempts, Err: lastErr}
}

func (v *OpenAIInvoker) attempt(ctx context.Context, prompt, model string, params GenerationParams) (string, error) {
	maxTokens := params.MaxTokens
	if maxTokens == 0 {
		maxTokens = v.cfg.MaxTokens
	}

	temperature := params.Temperature
	if temperature == 0 {
		temperature = v.cfg.Temperature
	}

	request := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	callCtx, cancel := context.WithTimeout(ctx, v.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := v.client.CreateChatCompletion(callCtx, request)
	latency := time.Since(start)
	invocationDuration.WithLabelValues(model, params.Agent).Observe(latency.Seconds())

	if err != nil {
		classified := classifyBackendError(err)
		invocationFailures.WithLabelValues(model, params.Agent).Inc()
		v.record(ctx, params, model, CallStatusError, classified.Error(), latency)
		return "", classified
	}

	if len(resp.Choices) == 0 {
		empty := fmt.Errorf("%w: no choices returned", ErrBackendError)
		invocationFailures.WithLabelValues(model, params.Agent).Inc()
		v.record(ctx, params, model, CallStatusError, empty.Error(), latency)
		return "", empty
	}

	v.record(ctx, params, model, CallStatusSuccess, "", latency)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// wait sleeps for an exponentially growing backoff before the next attempt,
// aborting early when the caller cancels.
func (v *OpenAIInvoker) wait(ctx context.Context, attempt int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if v.cfg.RetryBackoff <= 0 {
		return nil
	}

	delay := v.cfg.RetryBackoff << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (v *OpenAIInvoker) record(ctx context.Context, params GenerationParams, model, status, message string, latency time.Duration) {
	if v.audit == nil {
		return
	}

	v.audit.Record(ctx, CallRecord{
		Agent:        params.Agent,
		SessionID:    params.SessionID,
		Status:       status,
		ErrorMessage: message,
		LatencyMS:    latency.Milliseconds(),
		Model:        model,
	})
}

// classifyBackendError maps client errors onto the invoker taxonomy: API-level
// failures are backend errors, everything else is treated as transport.
func classifyBackendError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", ErrBackendError, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %v", ErrBackendError, err)
	}

	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
