package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "mcq"
	QuestionTypeShort     QuestionType = "short_answer"
	QuestionTypeLong      QuestionType = "long_answer"
	QuestionTypeVeryShort QuestionType = "very_short_answer"
)

// AutoGradable reports whether the type can be machine-scored.
// Only MCQ answers are compared against a key; written answers are
// flagged for review instead.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionTypeMCQ
}

// Option is a single MCQ choice.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question represents a single practice or mock-test question.
type Question struct {
	ID              uuid.UUID    `json:"id"`
	ChapterID       uuid.UUID    `json:"chapter_id"`
	QuestionText    string       `json:"question_text"`
	QuestionType    QuestionType `json:"question_type"`
	Marks           int          `json:"marks"`
	Options         []Option     `json:"options,omitempty"`
	ReferenceAnswer string       `json:"reference_answer,omitempty"`
	PYQExam         string       `json:"pyq_exam,omitempty"`
	PYQYear         int          `json:"pyq_year,omitempty"`
	Published       bool         `json:"published"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ErrInvalidOptions is returned when an MCQ fails the option invariant.
var ErrInvalidOptions = errors.New("mcq question must have at least 2 options and exactly 1 correct")

// CorrectOptionIndex returns the index of the correct MCQ option,
// or -1 for non-MCQ questions and malformed option sets.
func (q *Question) CorrectOptionIndex() int {
	if q.QuestionType != QuestionTypeMCQ {
		return -1
	}
	for i, opt := range q.Options {
		if opt.IsCorrect {
			return i
		}
	}
	return -1
}

// ValidateOptions enforces the publish invariant for MCQ questions:
// at least two options and exactly one marked correct.
func (q *Question) ValidateOptions() error {
	if q.QuestionType != QuestionTypeMCQ {
		return nil
	}
	if len(q.Options) < 2 {
		return ErrInvalidOptions
	}
	correct := 0
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return ErrInvalidOptions
	}
	return nil
}

// CreateQuestionRequest is the payload for adding a question to a chapter.
type CreateQuestionRequest struct {
	QuestionText    string   `json:"question_text" binding:"required,min=1,max=5000"`
	QuestionType    string   `json:"question_type" binding:"required,oneof=mcq short_answer long_answer very_short_answer"`
	Marks           int      `json:"marks" binding:"required,min=1,max=100"`
	Options         []Option `json:"options" binding:"omitempty,dive"`
	ReferenceAnswer string   `json:"reference_answer" binding:"omitempty,max=10000"`
	PYQExam         string   `json:"pyq_exam" binding:"omitempty,max=255"`
	PYQYear         int      `json:"pyq_year" binding:"omitempty,min=1970,max=2100"`
	Published       bool     `json:"published"`
}

// UpdateQuestionRequest is the payload for updating an existing question.
type UpdateQuestionRequest struct {
	QuestionText    string   `json:"question_text" binding:"omitempty,min=1,max=5000"`
	Marks           int      `json:"marks" binding:"omitempty,min=1,max=100"`
	Options         []Option `json:"options" binding:"omitempty,dive"`
	ReferenceAnswer string   `json:"reference_answer" binding:"omitempty,max=10000"`
	PYQExam         string   `json:"pyq_exam" binding:"omitempty,max=255"`
	PYQYear         int      `json:"pyq_year" binding:"omitempty,min=1970,max=2100"`
	Published       *bool    `json:"published" binding:"omitempty"`
}

// QuestionForStudent is a question without correctness flags, sent to
// students taking a mock test.
type QuestionForStudent struct {
	ID           uuid.UUID    `json:"id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	Marks        int          `json:"marks"`
	Options      []string     `json:"options,omitempty"`
}

// ForStudent strips the answer key from a question.
func (q *Question) ForStudent() QuestionForStudent {
	fs := QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Marks:        q.Marks,
	}
	for _, opt := range q.Options {
		fs.Options = append(fs.Options, opt.Text)
	}
	return fs
}
