package model

import (
	"time"

	"github.com/google/uuid"
)

// TestStatus enumerates the lifecycle states of a mock test.
type TestStatus string

const (
	TestStatusDraft     TestStatus = "DRAFT"
	TestStatusPublished TestStatus = "PUBLISHED"
	TestStatusArchived  TestStatus = "ARCHIVED"
)

// MockTest represents a timed mock test built from a fixed, ordered
// list of questions.
type MockTest struct {
	ID                uuid.UUID   `json:"id"`
	SubjectID         uuid.UUID   `json:"subject_id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	DurationMinutes   int         `json:"duration_minutes"`
	TotalMarks        int         `json:"total_marks"`
	TotalQuestions    int         `json:"total_questions"`
	PassingPercentage float64     `json:"passing_percentage"`
	QuestionIDs       []uuid.UUID `json:"question_ids"`
	Status            TestStatus  `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// DurationSeconds returns the test duration in seconds.
func (t *MockTest) DurationSeconds() int {
	return t.DurationMinutes * 60
}

// CreateTestRequest is the payload for creating a mock test.
type CreateTestRequest struct {
	SubjectID         uuid.UUID   `json:"subject_id" binding:"required"`
	Title             string      `json:"title" binding:"required,min=3,max=255"`
	Description       string      `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes   int         `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassingPercentage float64     `json:"passing_percentage" binding:"min=0,max=100"`
	QuestionIDs       []uuid.UUID `json:"question_ids" binding:"omitempty"`
}

// UpdateTestRequest is the payload for updating a mock test.
type UpdateTestRequest struct {
	Title             string      `json:"title" binding:"omitempty,min=3,max=255"`
	Description       string      `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes   int         `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	PassingPercentage *float64    `json:"passing_percentage" binding:"omitempty,min=0,max=100"`
	QuestionIDs       []uuid.UUID `json:"question_ids" binding:"omitempty"`
}

// TestPayload is the Redis-cached test paper sent to students
// (no correctness flags, no reference answers).
type TestPayload struct {
	TestID            uuid.UUID            `json:"test_id"`
	Title             string               `json:"title"`
	DurationMinutes   int                  `json:"duration_minutes"`
	TotalMarks        int                  `json:"total_marks"`
	TotalQuestions    int                  `json:"total_questions"`
	PassingPercentage float64              `json:"passing_percentage"`
	Questions         []QuestionForStudent `json:"questions"`
}
