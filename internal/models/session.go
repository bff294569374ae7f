package models

import "time"

// SessionState represents the lifecycle state of a meditation session.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateRunning   SessionState = "running"
	SessionStateCompleted SessionState = "completed"
)

// SessionRecord is the persisted outcome of a completed meditation session.
// It is built exactly once when the countdown reaches zero and is immutable
// afterwards.
type SessionRecord struct {
	ID           string    `json:"id,omitempty"`
	Minutes      int       `json:"minutes"`
	MeditationID string    `json:"meditationId"`
	Title        string    `json:"title,omitempty"`
	Date         time.Time `json:"date"`
}

// User is the authenticated account profile returned by the auth endpoints.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
