package models

import (
	"time"

	"gorm.io/datatypes"
)

// Hiring recommendations an evaluation can carry.
const (
	RecommendationStrongHire = "strong_hire"
	RecommendationHire       = "hire"
	RecommendationLeanHire   = "lean_hire"
	RecommendationNoHire     = "no_hire"
)

// InterviewEvaluation is the final aggregated assessment for a completed
// session. At most one exists per session and it is immutable once created.
type InterviewEvaluation struct {
	ID                     uint                        `gorm:"primaryKey" json:"id"`
	SessionID              uint                        `gorm:"not null;uniqueIndex" json:"session_id"`
	FinalScore             float64                     `gorm:"not null" json:"final_score"`
	Grade                  string                      `gorm:"size:32;not null" json:"grade"`
	Recommendation         string                      `gorm:"size:32;not null" json:"recommendation"`
	TechnicalCompetence    datatypes.JSONMap           `json:"technical_competence"`
	CommunicationSkills    datatypes.JSONMap           `json:"communication_skills"`
	BehavioralFit          datatypes.JSONMap           `json:"behavioral_fit"`
	Strengths              datatypes.JSONSlice[string] `json:"strengths"`
	Weaknesses             datatypes.JSONSlice[string] `json:"weaknesses"`
	NotableMoments         datatypes.JSONSlice[string] `json:"notable_moments"`
	RedFlags               datatypes.JSONSlice[string] `json:"red_flags,omitempty"`
	Reasoning              string                      `gorm:"type:text" json:"reasoning"`
	DevelopmentSuggestions datatypes.JSONSlice[string] `json:"development_suggestions,omitempty"`
	CreatedAt              time.Time                   `json:"created_at"`
	Session                InterviewSession            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
