package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interaction records one successful prompt improvement.
type Interaction struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	ConversationID string    `json:"conversationId,omitempty"`
	Platform       string    `json:"platform"`
	Domain         string    `json:"domain"`
	Mode           string    `json:"mode"`
	Original       string    `json:"original"`
	Improved       string    `json:"improved"`
	ScoreBefore    int       `json:"scoreBefore"`
	ScoreAfter     int       `json:"scoreAfter"`
}
