package model

import (
	"time"

	"github.com/google/uuid"
)

// PlannerEntry is one item in a student's study plan: a subject,
// chapter, or mock test scheduled for a specific day.
type PlannerEntry struct {
	ID          uuid.UUID  `json:"id"`
	StudentID   int        `json:"student_id"`
	SubjectID   *uuid.UUID `json:"subject_id,omitempty"`
	ChapterID   *uuid.UUID `json:"chapter_id,omitempty"`
	TestID      *uuid.UUID `json:"test_id,omitempty"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	ScheduledOn time.Time  `json:"scheduled_on"`
	Done        bool       `json:"done"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreatePlannerEntryRequest is the payload for adding a planner entry.
type CreatePlannerEntryRequest struct {
	SubjectID   *uuid.UUID `json:"subject_id" binding:"omitempty"`
	ChapterID   *uuid.UUID `json:"chapter_id" binding:"omitempty"`
	TestID      *uuid.UUID `json:"test_id" binding:"omitempty"`
	Title       string     `json:"title" binding:"required,min=2,max=255"`
	Notes       string     `json:"notes" binding:"omitempty,max=2000"`
	ScheduledOn time.Time  `json:"scheduled_on" binding:"required"`
}

// UpdatePlannerEntryRequest is the payload for updating a planner entry.
type UpdatePlannerEntryRequest struct {
	Title       string     `json:"title" binding:"omitempty,min=2,max=255"`
	Notes       string     `json:"notes" binding:"omitempty,max=2000"`
	ScheduledOn *time.Time `json:"scheduled_on" binding:"omitempty"`
	Done        *bool      `json:"done" binding:"omitempty"`
}
