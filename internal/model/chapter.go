package model

import (
	"time"

	"github.com/google/uuid"
)

// Chapter represents a chapter within a subject.
type Chapter struct {
	ID        uuid.UUID `json:"id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Title     string    `json:"title"`
	OrderNum  int       `json:"order_num"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateChapterRequest is the payload for creating a chapter.
type CreateChapterRequest struct {
	Title     string `json:"title" binding:"required,min=2,max=255"`
	OrderNum  int    `json:"order_num" binding:"min=0"`
	Published bool   `json:"published"`
}

// UpdateChapterRequest is the payload for updating a chapter.
type UpdateChapterRequest struct {
	Title     string `json:"title" binding:"required,min=2,max=255"`
	OrderNum  int    `json:"order_num" binding:"min=0"`
	Published *bool  `json:"published" binding:"omitempty"`
}
