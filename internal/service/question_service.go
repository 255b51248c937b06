package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
)

// QuestionService handles question business logic.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	chapterRepo  *repository.ChapterRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, chapterRepo *repository.ChapterRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, chapterRepo: chapterRepo}
}

// GetByID retrieves a question with its answer key. Admin only.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// ListByChapter retrieves a chapter's questions.
func (s *QuestionService) ListByChapter(ctx context.Context, chapterID uuid.UUID, publishedOnly bool) ([]model.Question, error) {
	return s.questionRepo.ListByChapter(ctx, chapterID, publishedOnly)
}

// ListByChapterForStudent retrieves published questions with answer keys
// stripped, for chapter-wise practice.
func (s *QuestionService) ListByChapterForStudent(ctx context.Context, chapterID uuid.UUID) ([]model.QuestionForStudent, error) {
	questions, err := s.questionRepo.ListByChapter(ctx, chapterID, true)
	if err != nil {
		return nil, err
	}

	stripped := make([]model.QuestionForStudent, 0, len(questions))
	for i := range questions {
		stripped = append(stripped, questions[i].ForStudent())
	}
	return stripped, nil
}

// Create adds a question under an existing chapter. Publishing an MCQ
// requires a well-formed option set.
func (s *QuestionService) Create(ctx context.Context, chapterID uuid.UUID, req *model.CreateQuestionRequest) (*model.Question, error) {
	if _, err := s.chapterRepo.GetByID(ctx, chapterID); err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}

	question := &model.Question{
		ChapterID:       chapterID,
		QuestionText:    req.QuestionText,
		QuestionType:    model.QuestionType(req.QuestionType),
		Marks:           req.Marks,
		Options:         req.Options,
		ReferenceAnswer: req.ReferenceAnswer,
		PYQExam:         req.PYQExam,
		PYQYear:         req.PYQYear,
		Published:       req.Published,
	}

	if question.Published {
		if err := question.ValidateOptions(); err != nil {
			return nil, err
		}
	}

	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// Update modifies a question. The same MCQ invariant applies whenever the
// question is (or becomes) published.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.QuestionText != "" {
		question.QuestionText = req.QuestionText
	}
	if req.Marks != 0 {
		question.Marks = req.Marks
	}
	if req.Options != nil {
		question.Options = req.Options
	}
	if req.ReferenceAnswer != "" {
		question.ReferenceAnswer = req.ReferenceAnswer
	}
	if req.PYQExam != "" {
		question.PYQExam = req.PYQExam
	}
	if req.PYQYear != 0 {
		question.PYQYear = req.PYQYear
	}
	if req.Published != nil {
		question.Published = *req.Published
	}

	if question.Published {
		if err := question.ValidateOptions(); err != nil {
			return nil, err
		}
	}

	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.questionRepo.Delete(ctx, id)
}
