package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/models"
)

// QuestionRepository exposes persistence helpers for interview questions.
type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (models.InterviewQuestion, error)
	ListBySession(ctx context.Context, sessionID uint) ([]models.InterviewQuestion, error)
	MarkUnselected(ctx context.Context, sessionID uint, fromPosition int) error
}

// NewQuestionRepository constructs a question repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

type questionRepository struct {
	db *gorm.DB
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.InterviewQuestion, error) {
	var question models.InterviewQuestion
	err := r.db.WithContext(ctx).First(&question, id).Error
	if err != nil {
		return models.InterviewQuestion{}, err
	}
	return question, nil
}

func (r *questionRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.InterviewQuestion, error) {
	var questions []models.InterviewQuestion
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// MarkUnselected clears the selection flag for every question at or past the
// given position, used when a session ends before reaching them.
func (r *questionRepository) MarkUnselected(ctx context.Context, sessionID uint, fromPosition int) error {
	return r.db.WithContext(ctx).
		Model(&models.InterviewQuestion{}).
		Where("session_id = ? AND position >= ?", sessionID, fromPosition).
		Update("selected", false).Error
}
