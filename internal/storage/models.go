package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Profile is a persisted learner profile row. Skills and Interests are stored
// comma-joined and split on load. The numeric self-assessment fields are
// nullable: nil means the learner never answered.
type Profile struct {
	LearnerName              string
	EducationLevel           string
	Skills                   []string
	Interests                []string
	Language                 string
	AIDataInterest           string
	DeviceAccess             string
	TimePerWeekHours         *int
	MathComfort              *int
	ProblemSolvingConfidence *int
	EnglishComfort           *int
	UpdatedAt                time.Time
}

// Message is one persisted conversation turn. Rows are append-only; the
// autoincrement ID is the total order within a learner's history.
type Message struct {
	ID          int64
	LearnerName string
	Role        string // "user" or "assistant"
	Content     string
	CreatedAt   time.Time
}
