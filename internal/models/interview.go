package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session lifecycle statuses.
const (
	SessionStatusPending    = "pending"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusAbandoned  = "abandoned"
)

// Question categories.
const (
	CategoryTechnical   = "technical"
	CategoryBehavioral  = "behavioral"
	CategorySituational = "situational"
)

// Position levels recognised for question generation.
const (
	LevelJunior = "junior"
	LevelMiddle = "middle"
	LevelSenior = "senior"
)

// InterviewSession represents one structured interview for a candidate.
// A session is never mutated after it reaches the completed status.
type InterviewSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CandidateID     string     `gorm:"size:64;not null;index" json:"candidate_id"`
	JobPostingID    *string    `gorm:"size:64" json:"job_posting_id,omitempty"`
	Status          string     `gorm:"size:32;not null;default:pending" json:"status"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// InterviewQuestion is a single generated question within a session. Immutable
// after creation except for the Selected flag, which is cleared for questions
// never reached when a session ends early.
type InterviewQuestion struct {
	ID                 uint                         `gorm:"primaryKey" json:"id"`
	SessionID          uint                         `gorm:"not null;index" json:"session_id"`
	Code               string                       `gorm:"size:64;not null" json:"code"`
	Category           string                       `gorm:"size:32;not null" json:"category"`
	Difficulty         string                       `gorm:"size:32;not null" json:"difficulty"`
	Text               string                       `gorm:"type:text;not null" json:"text"`
	KeyPoints          datatypes.JSONSlice[string]  `json:"key_points"`
	IdealAnswer        string                       `gorm:"type:text" json:"ideal_answer"`
	EvaluationCriteria datatypes.JSONSlice[string]  `json:"evaluation_criteria"`
	Position           int                          `gorm:"not null" json:"position"`
	Selected           bool                         `gorm:"not null;default:true" json:"selected"`
	CreatedAt          time.Time                    `json:"created_at"`
	Session            InterviewSession             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
