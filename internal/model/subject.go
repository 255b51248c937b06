package model

import (
	"time"

	"github.com/google/uuid"
)

// Subject represents an academic subject (e.g. পদার্থবিজ্ঞান, রসায়ন).
type Subject struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OrderNum    int       `json:"order_num"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	OrderNum    int    `json:"order_num" binding:"min=0"`
	Published   bool   `json:"published"`
}

// UpdateSubjectRequest is the payload for updating a subject.
type UpdateSubjectRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	OrderNum    int    `json:"order_num" binding:"min=0"`
	Published   *bool  `json:"published" binding:"omitempty"`
}
