package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
)

// ResourceService handles PDF study material business logic.
type ResourceService struct {
	resourceRepo *repository.ResourceRepository
	subjectRepo  *repository.SubjectRepository
}

// NewResourceService creates a new ResourceService.
func NewResourceService(resourceRepo *repository.ResourceRepository, subjectRepo *repository.SubjectRepository) *ResourceService {
	return &ResourceService{resourceRepo: resourceRepo, subjectRepo: subjectRepo}
}

// GetByID retrieves a resource.
func (s *ResourceService) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	return s.resourceRepo.GetByID(ctx, id)
}

// ListBySubject retrieves resources for a subject, optionally narrowed
// to a chapter. Students see only published ones.
func (s *ResourceService) ListBySubject(ctx context.Context, subjectID uuid.UUID, chapterID *uuid.UUID, publishedOnly bool) ([]model.Resource, error) {
	return s.resourceRepo.ListBySubject(ctx, subjectID, chapterID, publishedOnly)
}

// Create registers a new PDF resource.
func (s *ResourceService) Create(ctx context.Context, req *model.CreateResourceRequest) (*model.Resource, error) {
	if _, err := s.subjectRepo.GetByID(ctx, req.SubjectID); err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}

	resource := &model.Resource{
		SubjectID: req.SubjectID,
		ChapterID: req.ChapterID,
		Title:     req.Title,
		FileURL:   req.FileURL,
		Published: req.Published,
	}
	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// Update modifies a resource entry.
func (s *ResourceService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateResourceRequest) (*model.Resource, error) {
	resource, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ChapterID != nil {
		resource.ChapterID = req.ChapterID
	}
	if req.Title != "" {
		resource.Title = req.Title
	}
	if req.FileURL != "" {
		resource.FileURL = req.FileURL
	}
	if req.Published != nil {
		resource.Published = *req.Published
	}

	if err := s.resourceRepo.Update(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// Delete removes a resource entry.
func (s *ResourceService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.resourceRepo.Delete(ctx, id)
}
