package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates how a test attempt ended.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
	AttemptStatusExpired    AttemptStatus = "EXPIRED"
	AttemptStatusAbandoned  AttemptStatus = "ABANDONED"
)

// AnswerRecord is one recorded answer in the final attempt snapshot.
// OptionIndex is set for MCQ answers, Text for written answers.
type AnswerRecord struct {
	QuestionID  uuid.UUID `json:"question_id"`
	OptionIndex *int      `json:"option_index,omitempty"`
	Text        string    `json:"text,omitempty"`
}

// TestAttempt is the immutable result of one run through a mock test.
// Percentage is stored unrounded; use DisplayPercentage at the UI boundary.
type TestAttempt struct {
	ID               uuid.UUID      `json:"id"`
	TestID           uuid.UUID      `json:"test_id"`
	StudentID        int            `json:"student_id"`
	Answers          []AnswerRecord `json:"answers"`
	CorrectCount     int            `json:"correct_count"`
	WrongCount       int            `json:"wrong_count"`
	SkippedCount     int            `json:"skipped_count"`
	NeedsReviewCount int            `json:"needs_review_count"`
	TotalScore       int            `json:"total_score"`
	MaxScore         int            `json:"max_score"`
	Percentage       float64        `json:"percentage"`
	Passed           bool           `json:"passed"`
	TimeTakenSeconds int            `json:"time_taken_seconds"`
	Status           AttemptStatus  `json:"status"`
	StartedAt        time.Time      `json:"started_at"`
	FinishedAt       *time.Time     `json:"finished_at,omitempty"`
}

// DisplayPercentage rounds the stored percentage to 2 decimal places.
func (a *TestAttempt) DisplayPercentage() float64 {
	return math.Round(a.Percentage*100) / 100
}

// AttemptSummary is the lightweight row shown in a student's history
// and in the admin results table.
type AttemptSummary struct {
	ID               uuid.UUID     `json:"id"`
	TestID           uuid.UUID     `json:"test_id"`
	TestTitle        string        `json:"test_title"`
	StudentID        int           `json:"student_id"`
	StudentName      string        `json:"student_name,omitempty"`
	TotalScore       int           `json:"total_score"`
	MaxScore         int           `json:"max_score"`
	Percentage       float64       `json:"percentage"`
	Passed           bool          `json:"passed"`
	Status           AttemptStatus `json:"status"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       *time.Time    `json:"finished_at,omitempty"`
	TimeTakenSeconds int           `json:"time_taken_seconds"`
}
