package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prostuti-app/prostuti-backend/internal/config"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
	"github.com/prostuti-app/prostuti-backend/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Attempt lifecycle errors.
var (
	ErrAttemptNotActive = errors.New("no in-progress attempt for this test")
	ErrAttemptFinished  = errors.New("attempt is already finished")
)

// AutosavePayload is the queue message consumed by the autosave worker.
type AutosavePayload struct {
	TestID      string `json:"test_id"`
	StudentID   int    `json:"student_id"`
	QuestionID  string `json:"question_id"`
	OptionIndex *int   `json:"option_index,omitempty"`
	Text        string `json:"text,omitempty"`
}

// AttemptService orchestrates mock-test attempts: it owns the live
// session registry, mirrors progress into Redis so attempts survive a
// restart, and hands finished attempts to the persistence queue.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
	testService *TestService
	registry    *session.Registry
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	testService *TestService,
	registry *session.Registry,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		testService: testService,
		registry:    registry,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start begins (or resumes) the student's attempt on a published test.
// Starting is idempotent: a second call, from any device, lands on the
// same attempt with the original deadline.
func (s *AttemptService) Start(ctx context.Context, testID uuid.UUID, studentID int) (*session.Snapshot, error) {
	// Live session already in memory: just report its state. A finished
	// one still resident (result retention) means no restart is possible.
	if sess, ok := s.registry.Get(testID, studentID); ok {
		if sess.Phase() == session.PhaseSubmitted {
			return nil, ErrAttemptFinished
		}
		snap := sess.Snapshot()
		return &snap, nil
	}

	test, err := s.testService.GetByID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}
	if test.Status != model.TestStatusPublished {
		return nil, ErrTestNotPublished
	}

	attempt := &model.TestAttempt{TestID: testID, StudentID: studentID, MaxScore: test.TotalMarks}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("create attempt: %w", err)
		}
		// Row already exists: resume it, or surface the finished result.
		existing, fetchErr := s.attemptRepo.GetByTestAndStudent(ctx, testID, studentID)
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch existing attempt: %w", fetchErr)
		}
		if existing.Status != model.AttemptStatusInProgress {
			return nil, ErrAttemptFinished
		}
		sess, resumeErr := s.resume(ctx, test, existing)
		if resumeErr != nil {
			return nil, resumeErr
		}
		if sess.Phase() == session.PhaseSubmitted {
			// The original deadline passed while nobody was connected.
			return nil, ErrAttemptFinished
		}
		snap := sess.Snapshot()
		return &snap, nil
	}

	// Fresh attempt. Mirror the start timestamp into Redis so state
	// reads do not need PostgreSQL.
	startKey := config.CacheKey.AttemptStartKey(testID.String(), studentID)
	if err := s.rdb.Set(ctx, startKey, attempt.StartedAt.Unix(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache attempt start time")
	}

	sess, err := s.buildSession(ctx, test, studentID)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(); err != nil {
		return nil, err
	}
	sess = s.register(testID, studentID, sess)

	snap := sess.Snapshot()
	return &snap, nil
}

// GetState returns the live snapshot of an in-progress attempt,
// rebuilding the session from Redis and PostgreSQL after a restart.
func (s *AttemptService) GetState(ctx context.Context, testID uuid.UUID, studentID int) (*session.Snapshot, error) {
	if sess, ok := s.registry.Get(testID, studentID); ok {
		if sess.Phase() == session.PhaseSubmitted {
			return nil, ErrAttemptFinished
		}
		snap := sess.Snapshot()
		return &snap, nil
	}

	attempt, err := s.attemptRepo.GetByTestAndStudent(ctx, testID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotActive
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrAttemptFinished
	}

	test, err := s.testService.GetByID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}
	sess, err := s.resume(ctx, test, attempt)
	if err != nil {
		return nil, err
	}
	if sess.Phase() == session.PhaseSubmitted {
		return nil, ErrAttemptFinished
	}
	snap := sess.Snapshot()
	return &snap, nil
}

// Answer records an answer on the live session and autosaves it: the
// Redis hash is updated synchronously, durable persistence goes through
// the worker queue.
func (s *AttemptService) Answer(ctx context.Context, testID uuid.UUID, studentID int, questionID uuid.UUID, ans session.Answer) error {
	sess, err := s.liveSession(ctx, testID, studentID)
	if err != nil {
		return err
	}
	if err := sess.SetAnswer(questionID, ans); err != nil {
		return err
	}

	raw, err := json.Marshal(ans)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	answersKey := config.CacheKey.AttemptAnswersKey(testID.String(), studentID)
	if err := s.rdb.HSet(ctx, answersKey, questionID.String(), raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("autosave hash write failed")
	}

	payload, err := json.Marshal(AutosavePayload{
		TestID:      testID.String(),
		StudentID:   studentID,
		QuestionID:  questionID.String(),
		OptionIndex: ans.OptionIndex,
		Text:        ans.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal autosave payload: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("autosave enqueue failed")
	}
	return nil
}

// Skip marks the current question skipped.
func (s *AttemptService) Skip(ctx context.Context, testID uuid.UUID, studentID int) error {
	sess, err := s.liveSession(ctx, testID, studentID)
	if err != nil {
		return err
	}
	return sess.SkipCurrent()
}

// ToggleMark flips the review flag on the question at the given index.
func (s *AttemptService) ToggleMark(ctx context.Context, testID uuid.UUID, studentID int, index int) error {
	sess, err := s.liveSession(ctx, testID, studentID)
	if err != nil {
		return err
	}
	return sess.ToggleMark(index)
}

// Navigate moves the cursor to the question at the given index.
func (s *AttemptService) Navigate(ctx context.Context, testID uuid.UUID, studentID int, index int) error {
	sess, err := s.liveSession(ctx, testID, studentID)
	if err != nil {
		return err
	}
	return sess.NavigateTo(index)
}

// Submit finalizes the attempt and returns the graded result. Safe to
// call twice; the second call returns the already computed attempt.
func (s *AttemptService) Submit(ctx context.Context, testID uuid.UUID, studentID int) (*model.TestAttempt, error) {
	if sess, ok := s.registry.Get(testID, studentID); ok {
		return sess.Submit()
	}

	attempt, err := s.attemptRepo.GetByTestAndStudent(ctx, testID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotActive
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		// Finalized by another device or the expiry sweep.
		return attempt, nil
	}

	test, err := s.testService.GetByID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}
	sess, err := s.resume(ctx, test, attempt)
	if err != nil {
		return nil, err
	}
	// If the rebuild hit an already-passed deadline the session expired
	// at once; Submit then hands back that graded attempt unchanged.
	return sess.Submit()
}

// Abandon force-closes a live attempt without a submit event. Whatever
// the student answered is still scored.
func (s *AttemptService) Abandon(ctx context.Context, testID uuid.UUID, studentID int) (*model.TestAttempt, error) {
	sess, err := s.liveSession(ctx, testID, studentID)
	if err != nil {
		return nil, err
	}
	return sess.Abandon()
}

// GetResult returns the finished attempt for a test-student pair.
func (s *AttemptService) GetResult(ctx context.Context, testID uuid.UUID, studentID int) (*model.TestAttempt, error) {
	if sess, ok := s.registry.Get(testID, studentID); ok {
		if att := sess.Attempt(); att != nil {
			return att, nil
		}
	}

	attempt, err := s.attemptRepo.GetByTestAndStudent(ctx, testID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotActive
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusInProgress {
		return nil, ErrAttemptNotActive
	}
	return attempt, nil
}

// ListByStudent returns the student's attempt history.
func (s *AttemptService) ListByStudent(ctx context.Context, studentID int) ([]model.AttemptSummary, error) {
	return s.attemptRepo.ListByStudent(ctx, studentID)
}

// ListByTest returns the paginated results table for the admin console.
func (s *AttemptService) ListByTest(ctx context.Context, testID uuid.UUID, page, perPage int) ([]model.AttemptSummary, int64, error) {
	return s.attemptRepo.ListByTest(ctx, testID, page, perPage)
}

// ExpireOverdue force-finishes IN_PROGRESS attempts whose deadline
// passed while no live session was tracking them (server restart).
// Autosaved answers still count toward the score. Returns the number
// of attempts expired.
func (s *AttemptService) ExpireOverdue(ctx context.Context, grace time.Duration) (int, error) {
	overdue, err := s.attemptRepo.ListOverdue(ctx, grace)
	if err != nil {
		return 0, fmt.Errorf("list overdue: %w", err)
	}

	expired := 0
	for i := range overdue {
		attempt := &overdue[i]

		// A live session owns this attempt; its own countdown handles expiry.
		if _, ok := s.registry.Get(attempt.TestID, attempt.StudentID); ok {
			continue
		}

		test, err := s.testService.GetByID(ctx, attempt.TestID)
		if err != nil {
			s.log.Error().Err(err).Str("test_id", attempt.TestID.String()).Msg("expire: get test failed")
			continue
		}
		questions, err := s.testService.LoadQuestions(ctx, test)
		if err != nil {
			s.log.Error().Err(err).Str("test_id", attempt.TestID.String()).Msg("expire: load questions failed")
			continue
		}

		answers := s.autosavedAnswers(ctx, attempt.TestID, attempt.StudentID)
		statuses := make(map[uuid.UUID]session.Status, len(questions))
		for j := range questions {
			st := session.Status{Base: session.StatusUnseen}
			if _, ok := answers[questions[j].ID]; ok {
				st.Base = session.StatusAnswered
			}
			statuses[questions[j].ID] = st
		}

		scored := session.Score(test, questions, answers, statuses, model.AttemptStatusExpired, test.DurationSeconds())
		scored.TestID = attempt.TestID
		scored.StudentID = attempt.StudentID
		scored.StartedAt = attempt.StartedAt
		finished := attempt.StartedAt.Add(time.Duration(test.DurationSeconds()) * time.Second)
		scored.FinishedAt = &finished

		if err := s.attemptRepo.Finalize(ctx, scored); err != nil {
			s.log.Error().Err(err).Str("test_id", attempt.TestID.String()).Int("student_id", attempt.StudentID).Msg("expire: finalize failed")
			continue
		}
		s.clearAttemptCache(ctx, attempt.TestID, attempt.StudentID)
		expired++
	}
	return expired, nil
}

// liveSession returns the in-memory session for an attempt, rebuilding
// it from storage if the process restarted mid-attempt.
func (s *AttemptService) liveSession(ctx context.Context, testID uuid.UUID, studentID int) (*session.Session, error) {
	if sess, ok := s.registry.Get(testID, studentID); ok {
		if sess.Phase() == session.PhaseSubmitted {
			return nil, ErrAttemptFinished
		}
		return sess, nil
	}

	if _, err := s.GetState(ctx, testID, studentID); err != nil {
		return nil, err
	}
	sess, ok := s.registry.Get(testID, studentID)
	if !ok || sess.Phase() == session.PhaseSubmitted {
		// Rebuild hit an already-passed deadline and expired at once.
		return nil, ErrAttemptFinished
	}
	return sess, nil
}

// resume rebuilds a live session for an in-progress attempt from its
// original start time and autosaved answers. The returned session is
// the registered one, which may be a concurrent resume's copy.
func (s *AttemptService) resume(ctx context.Context, test *model.MockTest, attempt *model.TestAttempt) (*session.Session, error) {
	startedAt, err := s.attemptStartTime(ctx, test.ID, attempt)
	if err != nil {
		return nil, err
	}

	sess, err := s.buildSession(ctx, test, attempt.StudentID)
	if err != nil {
		return nil, err
	}

	answers := s.autosavedAnswers(ctx, test.ID, attempt.StudentID)
	if err := sess.Restore(startedAt, answers); err != nil {
		return nil, err
	}
	return s.register(test.ID, attempt.StudentID, sess), nil
}

// register publishes a freshly built session and returns the one every
// caller must use. When a concurrent request registered first, the
// newcomer is discarded so its countdown can never finalize an attempt
// behind the adopted session's back.
func (s *AttemptService) register(testID uuid.UUID, studentID int, sess *session.Session) *session.Session {
	live, inserted := s.registry.PutIfAbsent(testID, studentID, sess)
	if !inserted {
		sess.Discard()
	}
	return live
}

// finishedSessionTTL keeps a graded session resident after it
// finalizes, so result reads do not race the persist worker's batch
// flush. The eviction timer reclaims the entry afterwards.
const finishedSessionTTL = 30 * time.Second

// buildSession constructs the state machine with persistence hooks wired in.
func (s *AttemptService) buildSession(ctx context.Context, test *model.MockTest, studentID int) (*session.Session, error) {
	questions, err := s.testService.LoadQuestions(ctx, test)
	if err != nil {
		return nil, err
	}

	var sess *session.Session
	sess, err = session.New(session.Config{
		Test:      test,
		Questions: questions,
		StudentID: studentID,
		OnFinal: func(att *model.TestAttempt) {
			s.enqueueFinal(att)
			time.AfterFunc(finishedSessionTTL, func() {
				s.registry.Evict(test.ID, studentID, sess)
			})
		},
	})
	return sess, err
}

// enqueueFinal hands a finished attempt to the persistence worker.
// Detached from any request context: the session may finalize from its
// own timer long after the triggering request ended.
func (s *AttemptService) enqueueFinal(att *model.TestAttempt) {
	ctx := context.Background()
	raw, err := json.Marshal(att)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal finished attempt failed")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Msg("enqueue finished attempt failed; persisting directly")
		if dbErr := s.attemptRepo.Finalize(ctx, att); dbErr != nil {
			s.log.Error().Err(dbErr).Msg("direct finalize failed")
		}
	}
}

// attemptStartTime reads the start timestamp from Redis, falling back
// to PostgreSQL and self-healing the cache on a miss.
func (s *AttemptService) attemptStartTime(ctx context.Context, testID uuid.UUID, attempt *model.TestAttempt) (time.Time, error) {
	startKey := config.CacheKey.AttemptStartKey(testID.String(), attempt.StudentID)

	val, err := s.rdb.Get(ctx, startKey).Result()
	if errors.Is(err, redis.Nil) {
		startUnix := attempt.StartedAt.Unix()
		_ = s.rdb.Set(ctx, startKey, startUnix, 0)
		return attempt.StartedAt, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get start time: %w", err)
	}

	startUnix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time in cache: %w", err)
	}
	return time.Unix(startUnix, 0), nil
}

// autosavedAnswers loads the Redis autosave hash for an attempt.
// Malformed entries are dropped rather than failing the resume.
func (s *AttemptService) autosavedAnswers(ctx context.Context, testID uuid.UUID, studentID int) map[uuid.UUID]session.Answer {
	answersKey := config.CacheKey.AttemptAnswersKey(testID.String(), studentID)
	stored, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("read autosave hash failed")
		return nil
	}

	answers := make(map[uuid.UUID]session.Answer, len(stored))
	for field, raw := range stored {
		qid, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		var ans session.Answer
		if err := json.Unmarshal([]byte(raw), &ans); err != nil {
			continue
		}
		answers[qid] = ans
	}
	return answers
}

func (s *AttemptService) clearAttemptCache(ctx context.Context, testID uuid.UUID, studentID int) {
	s.rdb.Del(ctx,
		config.CacheKey.AttemptAnswersKey(testID.String(), studentID),
		config.CacheKey.AttemptStartKey(testID.String(), studentID),
	)
}
