package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
)

// ChapterService handles chapter business logic.
type ChapterService struct {
	chapterRepo *repository.ChapterRepository
	subjectRepo *repository.SubjectRepository
}

// NewChapterService creates a new ChapterService.
func NewChapterService(chapterRepo *repository.ChapterRepository, subjectRepo *repository.SubjectRepository) *ChapterService {
	return &ChapterService{chapterRepo: chapterRepo, subjectRepo: subjectRepo}
}

// GetByID retrieves a chapter.
func (s *ChapterService) GetByID(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	return s.chapterRepo.GetByID(ctx, id)
}

// ListBySubject retrieves a subject's chapters. Students see only published ones.
func (s *ChapterService) ListBySubject(ctx context.Context, subjectID uuid.UUID, publishedOnly bool) ([]model.Chapter, error) {
	return s.chapterRepo.ListBySubject(ctx, subjectID, publishedOnly)
}

// Create adds a chapter under an existing subject.
func (s *ChapterService) Create(ctx context.Context, subjectID uuid.UUID, req *model.CreateChapterRequest) (*model.Chapter, error) {
	if _, err := s.subjectRepo.GetByID(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}

	chapter := &model.Chapter{
		SubjectID: subjectID,
		Title:     req.Title,
		OrderNum:  req.OrderNum,
		Published: req.Published,
	}
	if err := s.chapterRepo.Create(ctx, chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

// Update modifies a chapter.
func (s *ChapterService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateChapterRequest) (*model.Chapter, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	chapter.Title = req.Title
	chapter.OrderNum = req.OrderNum
	if req.Published != nil {
		chapter.Published = *req.Published
	}

	if err := s.chapterRepo.Update(ctx, chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

// Delete removes a chapter.
func (s *ChapterService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.chapterRepo.Delete(ctx, id)
}
