package model

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a downloadable PDF study material. The file itself lives
// on an external host; only the metadata and URL are stored here.
type Resource struct {
	ID        uuid.UUID  `json:"id"`
	SubjectID uuid.UUID  `json:"subject_id"`
	ChapterID *uuid.UUID `json:"chapter_id,omitempty"`
	Title     string     `json:"title"`
	FileURL   string     `json:"file_url"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateResourceRequest is the payload for registering a PDF resource.
type CreateResourceRequest struct {
	SubjectID uuid.UUID  `json:"subject_id" binding:"required"`
	ChapterID *uuid.UUID `json:"chapter_id" binding:"omitempty"`
	Title     string     `json:"title" binding:"required,min=2,max=255"`
	FileURL   string     `json:"file_url" binding:"required,url,max=2048"`
	Published bool       `json:"published"`
}

// UpdateResourceRequest is the payload for updating a PDF resource.
type UpdateResourceRequest struct {
	ChapterID *uuid.UUID `json:"chapter_id" binding:"omitempty"`
	Title     string     `json:"title" binding:"omitempty,min=2,max=255"`
	FileURL   string     `json:"file_url" binding:"omitempty,url,max=2048"`
	Published *bool      `json:"published" binding:"omitempty"`
}
