package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// Lifecycle and input errors. Lifecycle violations indicate a caller bug
// and are surfaced loudly; navigation out of range is clamped instead.
var (
	ErrInvalidState    = errors.New("operation not valid in current session state")
	ErrUnknownQuestion = errors.New("question does not belong to this test")
	ErrInvalidIndex    = errors.New("question index out of range")
	ErrMissingQuestion = errors.New("test references a question that was not supplied")
)

// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseSubmitted  Phase = "submitted"
)

// BaseStatus is the answer lifecycle of a single question. The
// marked-for-review flag is kept orthogonal on Status so that marking
// never conflicts with answered/skipped/unseen.
type BaseStatus string

const (
	StatusUnseen   BaseStatus = "unseen"
	StatusAnswered BaseStatus = "answered"
	StatusSkipped  BaseStatus = "skipped"
)

// Status is the full per-question state.
type Status struct {
	Base   BaseStatus `json:"base"`
	Marked bool       `json:"marked"`
}

// Answer is a recorded answer: an option index for MCQ, free text otherwise.
type Answer struct {
	OptionIndex *int   `json:"option_index,omitempty"`
	Text        string `json:"text,omitempty"`
}

// Counts are the derived per-status totals, recomputed on demand.
type Counts struct {
	Answered int `json:"answered"`
	Skipped  int `json:"skipped"`
	Unseen   int `json:"unseen"`
	Marked   int `json:"marked"`
}

// Snapshot is an immutable copy of the session state, safe to hand to
// listeners and encoders without holding the session lock.
type Snapshot struct {
	Phase            Phase                 `json:"phase"`
	CurrentIndex     int                   `json:"current_index"`
	Statuses         map[uuid.UUID]Status  `json:"statuses"`
	Answers          map[uuid.UUID]Answer  `json:"answers"`
	Counts           Counts                `json:"counts"`
	RemainingSeconds int                   `json:"remaining_seconds"`
	StartedAt        time.Time             `json:"started_at"`
}

// Config wires a session to its test definition and collaborators. The
// session never fetches or stores anything itself; persistence belongs
// to the caller.
type Config struct {
	Test      *model.MockTest
	Questions []model.Question
	StudentID int

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	// OnChange is invoked after every mutating operation.
	OnChange func(Snapshot)

	// OnFinal is invoked exactly once with the finished attempt,
	// whether the session ended by submit, expiry, or abandonment.
	OnFinal func(*model.TestAttempt)
}

// Session is the in-memory state machine for one mock-test attempt.
// All methods are safe for concurrent use; the manual-submit vs
// timer-expiry race resolves to exactly one finalization.
type Session struct {
	mu sync.Mutex

	test      *model.MockTest
	questions []model.Question
	order     []uuid.UUID
	index     map[uuid.UUID]int
	studentID int

	phase     Phase
	current   int
	answers   map[uuid.UUID]Answer
	statuses  map[uuid.UUID]Status
	startedAt time.Time
	countdown *Countdown
	attempt   *model.TestAttempt

	now      func() time.Time
	onChange func(Snapshot)
	onFinal  func(*model.TestAttempt)
}

// New builds a session for the given test and question set. The
// question order follows test.QuestionIDs when present, otherwise the
// supplied slice order. Every referenced question must be supplied.
func New(cfg Config) (*Session, error) {
	if cfg.Test == nil || len(cfg.Questions) == 0 {
		return nil, ErrMissingQuestion
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	byID := make(map[uuid.UUID]model.Question, len(cfg.Questions))
	for _, q := range cfg.Questions {
		byID[q.ID] = q
	}

	ids := cfg.Test.QuestionIDs
	if len(ids) == 0 {
		ids = make([]uuid.UUID, 0, len(cfg.Questions))
		for _, q := range cfg.Questions {
			ids = append(ids, q.ID)
		}
	}

	ordered := make([]model.Question, 0, len(ids))
	order := make([]uuid.UUID, 0, len(ids))
	index := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, ErrMissingQuestion
		}
		index[id] = len(order)
		order = append(order, id)
		ordered = append(ordered, q)
	}

	return &Session{
		test:      cfg.Test,
		questions: ordered,
		order:     order,
		index:     index,
		studentID: cfg.StudentID,
		phase:     PhaseNotStarted,
		answers:   make(map[uuid.UUID]Answer, len(order)),
		statuses:  make(map[uuid.UUID]Status, len(order)),
		now:       now,
		onChange:  cfg.OnChange,
		onFinal:   cfg.OnFinal,
	}, nil
}

// Start begins the attempt: records the start timestamp, marks every
// question unseen, and arms the expiry countdown. Valid only once.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.phase != PhaseNotStarted {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.startLocked(s.now())
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Restore resumes a previously started attempt (page reload, server
// restart) from its original start timestamp and autosaved answers.
// The countdown is re-armed against the original deadline, so time
// lost while disconnected still counts. If the deadline has already
// passed the session expires immediately.
func (s *Session) Restore(startedAt time.Time, answers map[uuid.UUID]Answer) error {
	s.mu.Lock()
	if s.phase != PhaseNotStarted {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.startLocked(startedAt)
	for id, ans := range answers {
		if _, ok := s.index[id]; !ok {
			continue
		}
		s.answers[id] = ans
		st := s.statuses[id]
		st.Base = StatusAnswered
		s.statuses[id] = st
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// startLocked initializes in-progress state. Caller holds the lock.
func (s *Session) startLocked(startedAt time.Time) {
	s.phase = PhaseInProgress
	s.startedAt = startedAt
	s.current = 0
	for _, id := range s.order {
		s.statuses[id] = Status{Base: StatusUnseen}
	}
	duration := time.Duration(s.test.DurationSeconds()) * time.Second
	s.countdown = newCountdown(startedAt, duration, s.now, s.expire)
}

// SetAnswer records or overwrites the answer for a question and marks
// it answered. The current index is not advanced. A previously marked
// question keeps its marked flag.
func (s *Session) SetAnswer(questionID uuid.UUID, ans Answer) error {
	s.mu.Lock()
	if s.phase != PhaseInProgress {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if _, ok := s.index[questionID]; !ok {
		s.mu.Unlock()
		return ErrUnknownQuestion
	}
	s.answers[questionID] = ans
	st := s.statuses[questionID]
	st.Base = StatusAnswered
	s.statuses[questionID] = st
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// SkipCurrent marks the current question skipped, but only if it has
// no recorded answer — skipping means leaving unanswered, never
// discarding an answer. Safe to call repeatedly.
func (s *Session) SkipCurrent() error {
	s.mu.Lock()
	if s.phase != PhaseInProgress {
		s.mu.Unlock()
		return ErrInvalidState
	}
	id := s.order[s.current]
	if _, answered := s.answers[id]; answered {
		s.mu.Unlock()
		return nil
	}
	st := s.statuses[id]
	if st.Base == StatusSkipped {
		s.mu.Unlock()
		return nil
	}
	st.Base = StatusSkipped
	s.statuses[id] = st
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// ToggleMark flips the marked-for-review flag on the question at the
// given index. Marking is independent of answered/skipped/unseen.
// An out-of-range index here is a programmer error, not navigation.
func (s *Session) ToggleMark(index int) error {
	s.mu.Lock()
	if s.phase != PhaseInProgress {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if index < 0 || index >= len(s.order) {
		s.mu.Unlock()
		return ErrInvalidIndex
	}
	id := s.order[index]
	st := s.statuses[id]
	st.Marked = !st.Marked
	s.statuses[id] = st
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// NavigateTo moves the current index, clamped to the valid range.
// Viewing a question never changes its status.
func (s *Session) NavigateTo(index int) error {
	s.mu.Lock()
	if s.phase != PhaseInProgress {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.order)-1 {
		index = len(s.order) - 1
	}
	if index == s.current {
		s.mu.Unlock()
		return nil
	}
	s.current = index
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Next advances to the following question; a no-op on the last one.
func (s *Session) Next() error {
	s.mu.Lock()
	target := s.current + 1
	s.mu.Unlock()
	return s.NavigateTo(target)
}

// Prev moves back one question; a no-op on the first one.
func (s *Session) Prev() error {
	s.mu.Lock()
	target := s.current - 1
	s.mu.Unlock()
	return s.NavigateTo(target)
}

// Submit finalizes the attempt manually. Idempotent: a second call —
// from a double click or from the expiry racing a click — returns the
// already computed attempt without rescoring.
func (s *Session) Submit() (*model.TestAttempt, error) {
	return s.finalize(model.AttemptStatusCompleted)
}

// Abandon finalizes the attempt as abandoned (forced close without a
// submit event). Scoring still runs so nothing the student entered is lost.
func (s *Session) Abandon() (*model.TestAttempt, error) {
	return s.finalize(model.AttemptStatusAbandoned)
}

// Discard retires a session that lost a registration race before any
// caller observed it: the countdown is disarmed and no finalization
// will ever run, so the discarded copy cannot grade the attempt behind
// the adopted one's back. A session that already finalized is left
// untouched.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return
	}
	s.countdown.Stop()
	s.phase = PhaseSubmitted
	s.onFinal = nil
}

// expire is the countdown callback; it force-submits as expired.
func (s *Session) expire() {
	_, _ = s.finalize(model.AttemptStatusExpired)
}

// finalize transitions to submitted exactly once. The first caller
// wins; later callers get the cached attempt.
func (s *Session) finalize(status model.AttemptStatus) (*model.TestAttempt, error) {
	s.mu.Lock()
	switch s.phase {
	case PhaseSubmitted:
		att := s.attempt
		s.mu.Unlock()
		return att, nil
	case PhaseNotStarted:
		s.mu.Unlock()
		return nil, ErrInvalidState
	}

	s.countdown.Stop()

	now := s.now()
	elapsed := int(now.Sub(s.startedAt) / time.Second)
	if limit := s.test.DurationSeconds(); elapsed > limit {
		elapsed = limit
	}
	if elapsed < 0 {
		elapsed = 0
	}

	att := Score(s.test, s.questions, s.answers, s.statuses, status, elapsed)
	att.StudentID = s.studentID
	att.StartedAt = s.startedAt
	finished := now
	att.FinishedAt = &finished

	s.phase = PhaseSubmitted
	s.attempt = att
	onFinal := s.onFinal
	s.mu.Unlock()

	if onFinal != nil {
		onFinal(att)
	}
	return att, nil
}

// Phase returns the lifecycle state.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Remaining returns the seconds left on the countdown. Before Start it
// is the full duration; after finalization it is 0.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseNotStarted:
		return s.test.DurationSeconds()
	case PhaseSubmitted:
		return 0
	}
	return s.countdown.Remaining()
}

// Counts returns the derived per-status totals.
func (s *Session) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsLocked()
}

// Attempt returns the finished attempt, or nil before finalization.
func (s *Session) Attempt() *model.TestAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Snapshot returns a deep copy of the observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) countsLocked() Counts {
	var c Counts
	for _, st := range s.statuses {
		switch st.Base {
		case StatusAnswered:
			c.Answered++
		case StatusSkipped:
			c.Skipped++
		default:
			c.Unseen++
		}
		if st.Marked {
			c.Marked++
		}
	}
	return c
}

func (s *Session) snapshotLocked() Snapshot {
	statuses := make(map[uuid.UUID]Status, len(s.statuses))
	for id, st := range s.statuses {
		statuses[id] = st
	}
	answers := make(map[uuid.UUID]Answer, len(s.answers))
	for id, ans := range s.answers {
		answers[id] = ans
	}

	remaining := 0
	switch s.phase {
	case PhaseNotStarted:
		remaining = s.test.DurationSeconds()
	case PhaseInProgress:
		remaining = s.countdown.Remaining()
	}

	return Snapshot{
		Phase:            s.phase,
		CurrentIndex:     s.current,
		Statuses:         statuses,
		Answers:          answers,
		Counts:           s.countsLocked(),
		RemainingSeconds: remaining,
		StartedAt:        s.startedAt,
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
