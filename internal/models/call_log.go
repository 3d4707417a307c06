package models

import "time"

// AgentCallLog is an append-only audit record for one model invocation attempt.
// The core never updates or deletes these rows.
type AgentCallLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AgentType    string    `gorm:"size:64;not null;index" json:"agent_type"`
	SessionID    *uint     `gorm:"index" json:"session_id,omitempty"`
	Status       string    `gorm:"size:16;not null" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	LatencyMS    int64     `gorm:"not null" json:"latency_ms"`
	ModelUsed    string    `gorm:"size:64" json:"model_used"`
	CreatedAt    time.Time `json:"created_at"`
}
