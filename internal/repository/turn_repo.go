package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/models"
)

// TurnRepository exposes persistence helpers for interview turns.
type TurnRepository interface {
	Create(ctx context.Context, turn *models.InterviewTurn) error
	ListBySession(ctx context.Context, sessionID uint) ([]models.InterviewTurn, error)
	CountBySession(ctx context.Context, sessionID uint) (int64, error)
}

// NewTurnRepository constructs a turn repository.
func NewTurnRepository(db *gorm.DB) TurnRepository {
	return &turnRepository{db: db}
}

type turnRepository struct {
	db *gorm.DB
}

func (r *turnRepository) Create(ctx context.Context, turn *models.InterviewTurn) error {
	return r.db.WithContext(ctx).Create(turn).Error
}

func (r *turnRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.InterviewTurn, error) {
	var turns []models.InterviewTurn
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("turn_number ASC").
		Find(&turns).Error
	if err != nil {
		return nil, err
	}
	return turns, nil
}

func (r *turnRepository) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InterviewTurn{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
