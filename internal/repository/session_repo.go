package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/models"
)

// SessionRepository exposes persistence helpers for interview sessions.
type SessionRepository interface {
	CreateWithQuestions(ctx context.Context, session *models.InterviewSession, questions []models.InterviewQuestion) error
	GetByID(ctx context.Context, id uint) (models.InterviewSession, error)
	Update(ctx context.Context, session *models.InterviewSession) error
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

type sessionRepository struct {
	db *gorm.DB
}

// CreateWithQuestions persists the session and its generated questions in one
// transaction so a failed insert never leaves a question-less session behind.
func (r *sessionRepository) CreateWithQuestions(ctx context.Context, session *models.InterviewSession, questions []models.InterviewQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].SessionID = session.ID
		}

		if len(questions) == 0 {
			return nil
		}

		return tx.Create(&questions).Error
	})
}

func (r *sessionRepository) GetByID(ctx context.Context, id uint) (models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		return models.InterviewSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *models.InterviewSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}
