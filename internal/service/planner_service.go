package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
)

// ErrNotEntryOwner is returned when a student touches someone else's
// planner entry.
var ErrNotEntryOwner = errors.New("planner entry belongs to another student")

// PlannerService handles study planner business logic. Entries are
// strictly private to their owning student.
type PlannerService struct {
	plannerRepo *repository.PlannerRepository
}

// NewPlannerService creates a new PlannerService.
func NewPlannerService(plannerRepo *repository.PlannerRepository) *PlannerService {
	return &PlannerService{plannerRepo: plannerRepo}
}

// List retrieves a student's planner entries in a date range. A zero
// range defaults to the current week.
func (s *PlannerService) List(ctx context.Context, studentID int, from, to time.Time) ([]model.PlannerEntry, error) {
	if from.IsZero() || to.IsZero() {
		now := time.Now()
		from = now.AddDate(0, 0, -int(now.Weekday()))
		to = from.AddDate(0, 0, 7)
	}
	return s.plannerRepo.ListByStudent(ctx, studentID, from, to)
}

// Create adds a planner entry for the student.
func (s *PlannerService) Create(ctx context.Context, studentID int, req *model.CreatePlannerEntryRequest) (*model.PlannerEntry, error) {
	entry := &model.PlannerEntry{
		StudentID:   studentID,
		SubjectID:   req.SubjectID,
		ChapterID:   req.ChapterID,
		TestID:      req.TestID,
		Title:       req.Title,
		Notes:       req.Notes,
		ScheduledOn: req.ScheduledOn,
	}
	if err := s.plannerRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Update modifies the student's own planner entry.
func (s *PlannerService) Update(ctx context.Context, studentID int, id uuid.UUID, req *model.UpdatePlannerEntryRequest) (*model.PlannerEntry, error) {
	entry, err := s.plannerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.StudentID != studentID {
		return nil, ErrNotEntryOwner
	}

	if req.Title != "" {
		entry.Title = req.Title
	}
	if req.Notes != "" {
		entry.Notes = req.Notes
	}
	if req.ScheduledOn != nil {
		entry.ScheduledOn = *req.ScheduledOn
	}
	if req.Done != nil {
		entry.Done = *req.Done
	}

	if err := s.plannerRepo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes the student's own planner entry.
func (s *PlannerService) Delete(ctx context.Context, studentID int, id uuid.UUID) error {
	entry, err := s.plannerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.StudentID != studentID {
		return ErrNotEntryOwner
	}
	return s.plannerRepo.Delete(ctx, id, studentID)
}
