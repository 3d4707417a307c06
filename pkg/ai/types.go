package ai

import "context"

// GenerationParams carries the per-call generation settings for a model invocation.
type GenerationParams struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Agent       string
	SessionID   *uint
}

// Invoker describes a text-completion backend that turns a prompt into raw model output.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// CallRecord captures the outcome of a single model invocation attempt.
type CallRecord struct {
	Agent        string
	SessionID    *uint
	Status       string
	ErrorMessage string
	LatencyMS    int64
	Model        string
}

// Call statuses recorded in the audit trail.
const (
	CallStatusSuccess = "success"
	CallStatusError   = "error"
)

// AuditRecorder is a fire-and-forget sink for invocation attempts. Implementations
// must never fail the calling operation.
type AuditRecorder interface {
	Record(ctx context.Context, record CallRecord)
}
