package models

import (
	"time"

	"gorm.io/datatypes"
)

// Actions a processed turn can end with.
const (
	ActionFollowUp     = "follow_up"
	ActionContinue     = "continue"
	ActionNextQuestion = "next_question"
	ActionEnd          = "end"
)

// InterviewTurn is one candidate-answer/AI-response exchange. Turns are
// append-only: exactly one is created per processed answer and never updated.
// Turn numbers are contiguous starting at 1 within a session.
type InterviewTurn struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	SessionID          uint                        `gorm:"not null;index:idx_turn_session_number,unique" json:"session_id"`
	QuestionID         *uint                       `json:"question_id,omitempty"`
	TurnNumber         int                         `gorm:"not null;index:idx_turn_session_number,unique" json:"turn_number"`
	AIMessage          string                      `gorm:"type:text" json:"ai_message"`
	CandidateMessage   string                      `gorm:"type:text;not null" json:"candidate_message"`
	TechnicalScore     float64                     `gorm:"not null" json:"technical_score"`
	CommunicationScore float64                     `gorm:"not null" json:"communication_score"`
	DepthScore         float64                     `gorm:"not null" json:"depth_score"`
	OverallScore       float64                     `gorm:"not null" json:"overall_score"`
	KeyObservations    datatypes.JSONSlice[string] `json:"key_observations"`
	Strengths          datatypes.JSONSlice[string] `json:"strengths"`
	Gaps               datatypes.JSONSlice[string] `json:"gaps"`
	Action             string                      `gorm:"size:32;not null" json:"action"`
	CreatedAt          time.Time                   `json:"created_at"`
	Session            InterviewSession            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
