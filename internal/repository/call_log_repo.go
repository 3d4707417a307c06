package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/models"
)

// CallLogRepository appends model-invocation audit records.
type CallLogRepository interface {
	Create(ctx context.Context, log *models.AgentCallLog) error
	ListBySession(ctx context.Context, sessionID uint) ([]models.AgentCallLog, error)
}

// NewCallLogRepository constructs a call log repository.
func NewCallLogRepository(db *gorm.DB) CallLogRepository {
	return &callLogRepository{db: db}
}

type callLogRepository struct {
	db *gorm.DB
}

func (r *callLogRepository) Create(ctx context.Context, log *models.AgentCallLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *callLogRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.AgentCallLog, error) {
	var logs []models.AgentCallLog
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
