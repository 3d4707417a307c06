package dto

import "time"

// CreateSessionRequest starts a new interview for a candidate.
type CreateSessionRequest struct {
	CandidateID      string   `json:"candidate_id" validate:"required"`
	JobPostingID     *string  `json:"job_posting_id,omitempty"`
	JobDescription   string   `json:"job_description" validate:"required"`
	CandidateProfile string   `json:"candidate_profile" validate:"required"`
	PositionLevel    string   `json:"position_level" validate:"required,oneof=junior middle senior"`
	QuestionCount    int      `json:"question_count" validate:"omitempty,min=1"`
	FocusAreas       []string `json:"focus_areas,omitempty"`
}

// QuestionResponse is the API view of a generated question.
type QuestionResponse struct {
	ID         uint     `json:"id"`
	Code       string   `json:"code"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Text       string   `json:"text"`
	KeyPoints  []string `json:"key_points"`
	Position   int      `json:"position"`
	Selected   bool     `json:"selected"`
}

// SessionResponse is returned on session creation and lookup.
type SessionResponse struct {
	ID                   uint               `json:"id"`
	CandidateID          string             `json:"candidate_id"`
	JobPostingID         *string            `json:"job_posting_id,omitempty"`
	Status               string             `json:"status"`
	StartedAt            *time.Time         `json:"started_at,omitempty"`
	CompletedAt          *time.Time         `json:"completed_at,omitempty"`
	DurationSeconds      int                `json:"duration_seconds"`
	Questions            []QuestionResponse `json:"questions,omitempty"`
	CategoryDistribution map[string]int     `json:"category_distribution,omitempty"`
}

// SubmitTurnRequest carries a candidate answer for processing.
type SubmitTurnRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Message    string `json:"message" validate:"required"`
}

// TurnEvaluationResponse bundles the per-turn scores and commentary.
type TurnEvaluationResponse struct {
	TechnicalScore     float64  `json:"technical_score"`
	CommunicationScore float64  `json:"communication_score"`
	DepthScore         float64  `json:"depth_score"`
	OverallScore       float64  `json:"overall_score"`
	KeyObservations    []string `json:"key_observations"`
	Strengths          []string `json:"strengths"`
	Gaps               []string `json:"gaps"`
}

// ContextResponse reflects the conversation state after a processed turn.
type ContextResponse struct {
	TopicsCovered []string `json:"topics_covered"`
	FollowUpDepth int      `json:"follow_up_depth"`
	TurnCount     int      `json:"turn_count"`
}

// TurnResponse is returned for every successfully processed answer.
type TurnResponse struct {
	TurnNumber       int                    `json:"turn_number"`
	Evaluation       TurnEvaluationResponse `json:"evaluation"`
	Action           string                 `json:"action"`
	AIMessage        string                 `json:"ai_message"`
	FollowUpQuestion string                 `json:"follow_up_question,omitempty"`
	NextQuestion     *QuestionResponse      `json:"next_question,omitempty"`
	Context          ContextResponse        `json:"context"`
	SessionStatus    string                 `json:"session_status"`
}

// CompleteSessionRequest finalises a session. Force completes an in-progress
// session before aggregating.
type CompleteSessionRequest struct {
	Force bool `json:"force"`
}

// EvaluationResponse is the final aggregated assessment.
type EvaluationResponse struct {
	SessionID              uint                   `json:"session_id"`
	FinalScore             float64                `json:"final_score"`
	Grade                  string                 `json:"grade"`
	Recommendation         string                 `json:"recommendation"`
	TechnicalCompetence    map[string]interface{} `json:"technical_competence"`
	CommunicationSkills    map[string]interface{} `json:"communication_skills"`
	BehavioralFit          map[string]interface{} `json:"behavioral_fit"`
	Strengths              []string               `json:"strengths"`
	Weaknesses             []string               `json:"weaknesses"`
	NotableMoments         []string               `json:"notable_moments"`
	RedFlags               []string               `json:"red_flags,omitempty"`
	Reasoning              string                 `json:"reasoning"`
	DevelopmentSuggestions []string               `json:"development_suggestions,omitempty"`
	CreatedAt              time.Time              `json:"created_at"`
}
