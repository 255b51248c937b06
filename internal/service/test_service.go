package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/config"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Mock test lifecycle errors.
var (
	ErrTestNotDraft        = errors.New("only draft tests can be modified")
	ErrTestNotPublished    = errors.New("test is not published")
	ErrTestHasNoQuestions  = errors.New("test has no questions")
	ErrQuestionNotFound    = errors.New("test references a missing question")
	ErrQuestionUnpublished = errors.New("test references an unpublished question")
)

// TestService handles mock test business logic. The student-facing paper
// for a published test is cached in Redis so starting an attempt does not
// hit PostgreSQL for every question.
type TestService struct {
	testRepo     *repository.TestRepository
	questionRepo *repository.QuestionRepository
	subjectRepo  *repository.SubjectRepository
	rdb          *redis.Client
}

// NewTestService creates a new TestService.
func NewTestService(
	testRepo *repository.TestRepository,
	questionRepo *repository.QuestionRepository,
	subjectRepo *repository.SubjectRepository,
	rdb *redis.Client,
) *TestService {
	return &TestService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		subjectRepo:  subjectRepo,
		rdb:          rdb,
	}
}

// GetByID retrieves a mock test.
func (s *TestService) GetByID(ctx context.Context, id uuid.UUID) (*model.MockTest, error) {
	return s.testRepo.GetByID(ctx, id)
}

// ListBySubject retrieves tests for a subject. Students see only published ones.
func (s *TestService) ListBySubject(ctx context.Context, subjectID uuid.UUID, publishedOnly bool) ([]model.MockTest, error) {
	status := model.TestStatus("")
	if publishedOnly {
		status = model.TestStatusPublished
	}
	return s.testRepo.ListBySubject(ctx, subjectID, status)
}

// ListAll retrieves every mock test for the admin console.
func (s *TestService) ListAll(ctx context.Context) ([]model.MockTest, error) {
	return s.testRepo.ListAll(ctx)
}

// Create adds a mock test in DRAFT status. Totals are derived from the
// referenced questions, never taken from the client.
func (s *TestService) Create(ctx context.Context, req *model.CreateTestRequest) (*model.MockTest, error) {
	if _, err := s.subjectRepo.GetByID(ctx, req.SubjectID); err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}

	test := &model.MockTest{
		SubjectID:         req.SubjectID,
		Title:             req.Title,
		Description:       req.Description,
		DurationMinutes:   req.DurationMinutes,
		PassingPercentage: req.PassingPercentage,
		QuestionIDs:       req.QuestionIDs,
		Status:            model.TestStatusDraft,
	}

	if err := s.recomputeTotals(ctx, test); err != nil {
		return nil, err
	}

	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

// Update modifies a draft test. Published tests are immutable: the paper
// students see must stay fixed once attempts can exist.
func (s *TestService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTestRequest) (*model.MockTest, error) {
	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if test.Status != model.TestStatusDraft {
		return nil, ErrTestNotDraft
	}

	if req.Title != "" {
		test.Title = req.Title
	}
	if req.Description != "" {
		test.Description = req.Description
	}
	if req.DurationMinutes != 0 {
		test.DurationMinutes = req.DurationMinutes
	}
	if req.PassingPercentage != nil {
		test.PassingPercentage = *req.PassingPercentage
	}
	if req.QuestionIDs != nil {
		test.QuestionIDs = req.QuestionIDs
	}

	if err := s.recomputeTotals(ctx, test); err != nil {
		return nil, err
	}

	if err := s.testRepo.Update(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

// Publish validates the paper and makes the test visible to students.
// Every referenced question must exist, be published, and (for MCQs) have
// a well-formed option set. The payload cache is prewarmed on success.
func (s *TestService) Publish(ctx context.Context, id uuid.UUID) (*model.MockTest, error) {
	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if test.Status != model.TestStatusDraft {
		return nil, ErrTestNotDraft
	}
	if len(test.QuestionIDs) == 0 {
		return nil, ErrTestHasNoQuestions
	}

	questions, err := s.loadOrderedQuestions(ctx, test)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if !questions[i].Published {
			return nil, ErrQuestionUnpublished
		}
		if err := questions[i].ValidateOptions(); err != nil {
			return nil, err
		}
	}

	if err := s.recomputeTotals(ctx, test); err != nil {
		return nil, err
	}
	if err := s.testRepo.Update(ctx, test); err != nil {
		return nil, err
	}
	if err := s.testRepo.UpdateStatus(ctx, id, model.TestStatusPublished); err != nil {
		return nil, err
	}
	test.Status = model.TestStatusPublished

	s.cachePayload(ctx, test, questions)

	return test, nil
}

// Archive hides a test from students and drops its cached paper.
func (s *TestService) Archive(ctx context.Context, id uuid.UUID) error {
	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if test.Status != model.TestStatusPublished {
		return ErrTestNotPublished
	}

	if err := s.testRepo.UpdateStatus(ctx, id, model.TestStatusArchived); err != nil {
		return err
	}

	s.rdb.Del(ctx, config.CacheKey.TestPayloadKey(id.String()), config.CacheKey.TestDurationKey(id.String()))
	return nil
}

// Delete removes a draft test. Published and archived tests keep their
// attempt history and can only be archived.
func (s *TestService) Delete(ctx context.Context, id uuid.UUID) error {
	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if test.Status != model.TestStatusDraft {
		return ErrTestNotDraft
	}
	return s.testRepo.Delete(ctx, id)
}

// GetPayload returns the student-facing paper for a published test,
// served from Redis with a PostgreSQL fallback that self-heals the cache.
func (s *TestService) GetPayload(ctx context.Context, id uuid.UUID) (*model.TestPayload, error) {
	key := config.CacheKey.TestPayloadKey(id.String())

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		payload := &model.TestPayload{}
		if jsonErr := json.Unmarshal([]byte(raw), payload); jsonErr == nil {
			return payload, nil
		}
		// Corrupt cache entry. Rebuild below.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get payload cache: %w", err)
	}

	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if test.Status != model.TestStatusPublished {
		return nil, ErrTestNotPublished
	}

	questions, err := s.loadOrderedQuestions(ctx, test)
	if err != nil {
		return nil, err
	}

	payload := s.cachePayload(ctx, test, questions)
	return payload, nil
}

// PrewarmAllCaches loads every published test's paper into Redis.
// Called once at boot so the first students after a restart never
// stampede PostgreSQL.
func (s *TestService) PrewarmAllCaches(ctx context.Context) error {
	tests, err := s.testRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list tests: %w", err)
	}

	for i := range tests {
		if tests[i].Status != model.TestStatusPublished {
			continue
		}
		questions, err := s.loadOrderedQuestions(ctx, &tests[i])
		if err != nil {
			return fmt.Errorf("prewarm test %s: %w", tests[i].ID, err)
		}
		s.cachePayload(ctx, &tests[i], questions)
	}
	return nil
}

// LoadQuestions returns the full graded questions of a test in paper order.
// Used by the attempt engine, never sent to students.
func (s *TestService) LoadQuestions(ctx context.Context, test *model.MockTest) ([]model.Question, error) {
	return s.loadOrderedQuestions(ctx, test)
}

// recomputeTotals derives total_marks and total_questions from the
// referenced questions.
func (s *TestService) recomputeTotals(ctx context.Context, test *model.MockTest) error {
	test.TotalQuestions = len(test.QuestionIDs)
	test.TotalMarks = 0
	if len(test.QuestionIDs) == 0 {
		return nil
	}

	questions, err := s.loadOrderedQuestions(ctx, test)
	if err != nil {
		return err
	}
	for i := range questions {
		test.TotalMarks += questions[i].Marks
	}
	return nil
}

// loadOrderedQuestions fetches the test's questions and restores the
// paper order from the test's ID list.
func (s *TestService) loadOrderedQuestions(ctx context.Context, test *model.MockTest) ([]model.Question, error) {
	questions, err := s.questionRepo.GetByIDs(ctx, test.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	ordered := make([]model.Question, 0, len(test.QuestionIDs))
	for _, qid := range test.QuestionIDs {
		q, ok := byID[qid]
		if !ok {
			return nil, ErrQuestionNotFound
		}
		ordered = append(ordered, *q)
	}
	return ordered, nil
}

// cachePayload stores the stripped paper and duration in Redis.
// Cache failures are ignored; GetPayload rebuilds from PostgreSQL.
func (s *TestService) cachePayload(ctx context.Context, test *model.MockTest, questions []model.Question) *model.TestPayload {
	payload := &model.TestPayload{
		TestID:            test.ID,
		Title:             test.Title,
		DurationMinutes:   test.DurationMinutes,
		TotalMarks:        test.TotalMarks,
		TotalQuestions:    test.TotalQuestions,
		PassingPercentage: test.PassingPercentage,
	}
	for i := range questions {
		payload.Questions = append(payload.Questions, questions[i].ForStudent())
	}

	if raw, err := json.Marshal(payload); err == nil {
		s.rdb.Set(ctx, config.CacheKey.TestPayloadKey(test.ID.String()), raw, 0)
		s.rdb.Set(ctx, config.CacheKey.TestDurationKey(test.ID.String()), test.DurationMinutes, 0)
	}

	return payload
}
