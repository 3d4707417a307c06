package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/internal/repository"
	"github.com/hireloop/hireloop-api/pkg/ai"
)

var auditDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "hireloop",
	Subsystem: "audit",
	Name:      "records_dropped_total",
	Help:      "Number of agent call records that could not be persisted",
})

const auditWriteTimeout = 5 * time.Second

// NewAuditRecorder builds the repository-backed call audit sink. Writes happen
// asynchronously and any failure is swallowed: a broken audit trail must never
// fail the calling operation.
func NewAuditRecorder(repo repository.CallLogRepository, logger zerolog.Logger) ai.AuditRecorder {
	return &auditRecorder{
		repo:   repo,
		logger: logger.With().Str("component", "call_audit").Logger(),
	}
}

type auditRecorder struct {
	repo   repository.CallLogRepository
	logger zerolog.Logger
}

func (r *auditRecorder) Record(ctx context.Context, record ai.CallRecord) {
	go r.write(record)
}

// write runs detached from the caller's context so a cancelled turn still
// leaves its attempt in the audit trail.
func (r *auditRecorder) write(record ai.CallRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	entry := models.AgentCallLog{
		AgentType:    record.Agent,
		SessionID:    record.SessionID,
		Status:       record.Status,
		ErrorMessage: record.ErrorMessage,
		LatencyMS:    record.LatencyMS,
		ModelUsed:    record.Model,
	}

	if err := r.repo.Create(ctx, &entry); err != nil {
		auditDropped.Inc()
		r.logger.Warn().Err(err).Str("agent", record.Agent).Msg("failed to persist agent call record")
	}
}
