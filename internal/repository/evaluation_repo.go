package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/models"
)

// EvaluationRepository exposes persistence helpers for final evaluations.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.InterviewEvaluation) error
	GetBySession(ctx context.Context, sessionID uint) (models.InterviewEvaluation, error)
	ExistsForSession(ctx context.Context, sessionID uint) (bool, error)
}

// NewEvaluationRepository constructs an evaluation repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

type evaluationRepository struct {
	db *gorm.DB
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.InterviewEvaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) GetBySession(ctx context.Context, sessionID uint) (models.InterviewEvaluation, error) {
	var evaluation models.InterviewEvaluation
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&evaluation).Error
	if err != nil {
		return models.InterviewEvaluation{}, err
	}
	return evaluation, nil
}

func (r *evaluationRepository) ExistsForSession(ctx context.Context, sessionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InterviewEvaluation{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count > 0, err
}
