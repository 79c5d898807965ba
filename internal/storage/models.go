package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Report is a saved persona report. Body is empty in listings.
type Report struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	CreatedAt      time.Time `json:"created_at"`
	PostCount      int       `json:"post_count"`
	CommentCount   int       `json:"comment_count"`
	LexiconVersion string    `json:"lexicon_version"`
	FilePath       string    `json:"file_path,omitempty"`
	Body           string    `json:"body,omitempty"`
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
