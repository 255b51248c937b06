package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// fakeClock is a manually advanced clock for drift-free timing tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func intPtr(i int) *int { return &i }

// newMCQTest builds a test of n MCQ questions worth marks each, with
// option index 1 correct, in a fixed order.
func newMCQTest(n, marks, durationMinutes int) (*model.MockTest, []model.Question) {
	questions := make([]model.Question, 0, n)
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		q := model.Question{
			ID:           uuid.New(),
			QuestionText: "প্রশ্ন",
			QuestionType: model.QuestionTypeMCQ,
			Marks:        marks,
			Options: []model.Option{
				{Text: "ক"},
				{Text: "খ", IsCorrect: true},
				{Text: "গ"},
				{Text: "ঘ"},
			},
		}
		questions = append(questions, q)
		ids = append(ids, q.ID)
	}
	test := &model.MockTest{
		ID:                uuid.New(),
		Title:             "মডেল টেস্ট",
		DurationMinutes:   durationMinutes,
		TotalMarks:        n * marks,
		TotalQuestions:    n,
		PassingPercentage: 33,
		QuestionIDs:       ids,
		Status:            model.TestStatusPublished,
	}
	return test, questions
}

func newStartedSession(t *testing.T, test *model.MockTest, questions []model.Question, clock *fakeClock) *Session {
	t.Helper()
	cfg := Config{Test: test, Questions: questions, StudentID: 7}
	if clock != nil {
		cfg.Now = clock.Now
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

// checkStatusInvariant asserts answered+skipped+unseen == totalQuestions.
func checkStatusInvariant(t *testing.T, s *Session, total int) {
	t.Helper()
	c := s.Counts()
	if got := c.Answered + c.Skipped + c.Unseen; got != total {
		t.Fatalf("status invariant broken: answered=%d skipped=%d unseen=%d, sum=%d want %d",
			c.Answered, c.Skipped, c.Unseen, got, total)
	}
}

func TestStartTwiceFails(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	s := newStartedSession(t, test, questions, nil)

	if err := s.Start(); err != ErrInvalidState {
		t.Fatalf("second Start: got %v, want ErrInvalidState", err)
	}
}

func TestOperationsBeforeStartFail(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	s, err := New(Config{Test: test, Questions: questions})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.SetAnswer(questions[0].ID, Answer{OptionIndex: intPtr(1)}); err != ErrInvalidState {
		t.Fatalf("SetAnswer before start: got %v", err)
	}
	if err := s.SkipCurrent(); err != ErrInvalidState {
		t.Fatalf("SkipCurrent before start: got %v", err)
	}
	if _, err := s.Submit(); err != ErrInvalidState {
		t.Fatalf("Submit before start: got %v", err)
	}
}

func TestSetAnswerUnknownQuestion(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	s := newStartedSession(t, test, questions, nil)

	if err := s.SetAnswer(uuid.New(), Answer{OptionIndex: intPtr(0)}); err != ErrUnknownQuestion {
		t.Fatalf("got %v, want ErrUnknownQuestion", err)
	}
}

func TestNavigationClampsWithoutError(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	s := newStartedSession(t, test, questions, nil)

	if err := s.Prev(); err != nil {
		t.Fatalf("Prev at index 0: %v", err)
	}
	if got := s.Snapshot().CurrentIndex; got != 0 {
		t.Fatalf("Prev at 0: index=%d, want 0", got)
	}

	if err := s.NavigateTo(99); err != nil {
		t.Fatalf("NavigateTo(99): %v", err)
	}
	if got := s.Snapshot().CurrentIndex; got != 2 {
		t.Fatalf("NavigateTo(99): index=%d, want 2", got)
	}

	if err := s.NavigateTo(-5); err != nil {
		t.Fatalf("NavigateTo(-5): %v", err)
	}
	if got := s.Snapshot().CurrentIndex; got != 0 {
		t.Fatalf("NavigateTo(-5): index=%d, want 0", got)
	}
}

func TestViewingDoesNotPromoteStatus(t *testing.T) {
	// Scenario: answer Q1, navigate away and back; Q1 stays answered,
	// Q2 stays unseen even though it was viewed.
	test, questions := newMCQTest(3, 1, 10)
	s := newStartedSession(t, test, questions, nil)

	if err := s.SetAnswer(questions[0].ID, Answer{OptionIndex: intPtr(1)}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := s.Prev(); err != nil {
		t.Fatalf("Prev: %v", err)
	}

	snap := s.Snapshot()
	if st := snap.Statuses[questions[0].ID]; st.Base != StatusAnswered {
		t.Fatalf("Q1 status=%q, want answered", st.Base)
	}
	if st := snap.Statuses[questions[1].ID]; st.Base != StatusUnseen {
		t.Fatalf("Q2 status=%q, want unseen after mere viewing", st.Base)
	}
	if c := s.Counts(); c.Answered != 1 {
		t.Fatalf("answered=%d, want 1 (no duplicate count)", c.Answered)
	}
	checkStatusInvariant(t, s, 3)
}

func TestSkipRefusesAnsweredQuestion(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	s := newStartedSession(t, test, questions, nil)

	if err := s.SetAnswer(questions[0].ID, Answer{OptionIndex: intPtr(1)}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SkipCurrent(); err != nil {
		t.Fatalf("SkipCurrent: %v", err)
	}

	snap := s.Snapshot()
	if st := snap.Statuses[questions[0].ID]; st.Base != StatusAnswered {
		t.Fatalf("answered question became %q after skip", st.Base)
	}
	if _, ok := snap.Answers[questions[0].ID]; !ok {
		t.Fatal("skip cleared a recorded answer")
	}

	// Skipping an unanswered question is no-op-safe when repeated.
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if err := s.SkipCurrent(); err != nil {
		t.Fatal(err)
	}
	if err := s.SkipCurrent(); err != nil {
		t.Fatal(err)
	}
	if st := s.Snapshot().Statuses[questions[1].ID]; st.Base != StatusSkipped {
		t.Fatalf("Q2 status=%q, want skipped", st.Base)
	}
	checkStatusInvariant(t, s, 3)
}

func TestMarkIsOrthogonalToAnswerState(t *testing.T) {
	// Scenario D: mark Q3 unanswered, answer it later → answered and
	// still marked, graded as answered.
	test, questions := newMCQTest(5, 2, 10)
	s := newStartedSession(t, test, questions, nil)

	if err := s.ToggleMark(2); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	st := s.Snapshot().Statuses[questions[2].ID]
	if !st.Marked || st.Base != StatusUnseen {
		t.Fatalf("after mark: base=%q marked=%v, want unseen+marked", st.Base, st.Marked)
	}

	if err := s.SetAnswer(questions[2].ID, Answer{OptionIndex: intPtr(1)}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	st = s.Snapshot().Statuses[questions[2].ID]
	if !st.Marked || st.Base != StatusAnswered {
		t.Fatalf("after answer: base=%q marked=%v, want answered+marked", st.Base, st.Marked)
	}

	att, err := s.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if att.CorrectCount != 1 || att.SkippedCount != 4 {
		t.Fatalf("correct=%d skipped=%d, want marked-then-answered graded as answered",
			att.CorrectCount, att.SkippedCount)
	}

	// Toggle removes the flag again.
	s2 := newStartedSession(t, test, questions, nil)
	if err := s2.ToggleMark(0); err != nil {
		t.Fatal(err)
	}
	if err := s2.ToggleMark(0); err != nil {
		t.Fatal(err)
	}
	if st := s2.Snapshot().Statuses[questions[0].ID]; st.Marked {
		t.Fatal("second toggle should clear the marked flag")
	}

	if err := s2.ToggleMark(42); err != ErrInvalidIndex {
		t.Fatalf("ToggleMark(42): got %v, want ErrInvalidIndex", err)
	}
}

func TestScoringScenario(t *testing.T) {
	// Scenario A: 5 MCQs, 2 marks each. Q1 correct, Q2 wrong, Q3
	// skipped, Q4 correct, Q5 never visited.
	clock := newFakeClock()
	test, questions := newMCQTest(5, 2, 10)
	s := newStartedSession(t, test, questions, clock)

	if err := s.SetAnswer(questions[0].ID, Answer{OptionIndex: intPtr(1)}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAnswer(questions[1].ID, Answer{OptionIndex: intPtr(0)}); err != nil {
		t.Fatal(err)
	}
	if err := s.NavigateTo(2); err != nil {
		t.Fatal(err)
	}
	if err := s.SkipCurrent(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAnswer(questions[3].ID, Answer{OptionIndex: intPtr(1)}); err != nil {
		t.Fatal(err)
	}

	clock.Advance(5 * time.Minute)

	att, err := s.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if att.CorrectCount != 2 || att.WrongCount != 1 || att.SkippedCount != 2 {
		t.Fatalf("counts correct=%d wrong=%d skipped=%d, want 2/1/2",
			att.CorrectCount, att.WrongCount, att.SkippedCount)
	}
	if att.TotalScore != 4 || att.MaxScore != 10 {
		t.Fatalf("score=%d/%d, want 4/10", att.TotalScore, att.MaxScore)
	}
	if att.Percentage != 40.0 {
		t.Fatalf("percentage=%v, want 40.0", att.Percentage)
	}
	if att.Status != model.AttemptStatusCompleted {
		t.Fatalf("status=%q, want COMPLETED", att.Status)
	}
	if att.TimeTakenSeconds != 300 {
		t.Fatalf("time taken=%d, want 300", att.TimeTakenSeconds)
	}
	if sum := att.CorrectCount + att.WrongCount + att.SkippedCount; sum != test.TotalQuestions {
		t.Fatalf("attempt invariant broken: %d != %d", sum, test.TotalQuestions)
	}
}

func TestSubmitIdempotent(t *testing.T) {
	clock := newFakeClock()
	test, questions := newMCQTest(3, 1, 10)
	s := newStartedSession(t, test, questions, clock)

	if err := s.SetAnswer(questions[0].ID, Answer{OptionIndex: intPtr(1)}); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Minute)

	first, err := s.Submit()
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// Time keeps moving; a second submit must not recompute anything.
	clock.Advance(time.Minute)
	second, err := s.Submit()
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if first != second {
		t.Fatal("second Submit returned a different attempt")
	}
	if second.TimeTakenSeconds != 60 {
		t.Fatalf("time taken changed on resubmit: %d", second.TimeTakenSeconds)
	}

	if err := s.SetAnswer(questions[1].ID, Answer{OptionIndex: intPtr(1)}); err != ErrInvalidState {
		t.Fatalf("SetAnswer after submit: got %v, want ErrInvalidState", err)
	}
}

func TestSubmitExpiryRaceProducesOneAttempt(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)

	var mu sync.Mutex
	finals := 0
	cfg := Config{
		Test:      test,
		Questions: questions,
		OnFinal: func(*model.TestAttempt) {
			mu.Lock()
			finals++
			mu.Unlock()
		},
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	// Fire manual submits and forced expiries from many goroutines at
	// once; exactly one finalization may win.
	var wg sync.WaitGroup
	results := make([]*model.TestAttempt, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var att *model.TestAttempt
			if i%2 == 0 {
				att, _ = s.Submit()
			} else {
				s.expire()
				att = s.Attempt()
			}
			results[i] = att
		}(i)
	}
	wg.Wait()

	mu.Lock()
	if finals != 1 {
		t.Fatalf("OnFinal fired %d times, want exactly 1", finals)
	}
	mu.Unlock()

	for i, att := range results {
		if att == nil {
			t.Fatalf("goroutine %d saw no attempt", i)
		}
		if att != results[0] {
			t.Fatalf("goroutine %d saw a different attempt", i)
		}
	}
}

func TestExpiryAutoSubmits(t *testing.T) {
	// Scenario B: 1-minute test, no user action. Restoring a session
	// whose deadline already passed must expire it immediately with
	// timeTaken capped at the full duration.
	test, questions := newMCQTest(3, 1, 1)

	done := make(chan *model.TestAttempt, 1)
	s, err := New(Config{
		Test:      test,
		Questions: questions,
		OnFinal:   func(att *model.TestAttempt) { done <- att },
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Restore(time.Now().Add(-61*time.Second), nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	select {
	case att := <-done:
		if att.Status != model.AttemptStatusExpired {
			t.Fatalf("status=%q, want EXPIRED", att.Status)
		}
		if att.TimeTakenSeconds != 60 {
			t.Fatalf("time taken=%d, want capped at 60", att.TimeTakenSeconds)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expiry never fired")
	}

	if s.Remaining() != 0 {
		t.Fatalf("remaining=%d after expiry, want 0", s.Remaining())
	}
}

func TestRemainingIsMonotonic(t *testing.T) {
	clock := newFakeClock()
	test, questions := newMCQTest(3, 1, 2)
	s := newStartedSession(t, test, questions, clock)

	prev := s.Remaining()
	if prev != 120 {
		t.Fatalf("initial remaining=%d, want 120", prev)
	}
	for i := 0; i < 10; i++ {
		clock.Advance(17 * time.Second)
		rem := s.Remaining()
		if rem > prev {
			t.Fatalf("remaining increased: %d -> %d", prev, rem)
		}
		if rem < 0 {
			t.Fatalf("remaining went negative: %d", rem)
		}
		prev = rem
	}
	// Well past the deadline: pinned to exactly 0.
	if prev != 0 {
		t.Fatalf("remaining=%d after deadline, want 0", prev)
	}
}

func TestRestoreRebuildsAnswers(t *testing.T) {
	clock := newFakeClock()
	test, questions := newMCQTest(3, 2, 10)

	s, err := New(Config{Test: test, Questions: questions, Now: clock.Now})
	if err != nil {
		t.Fatal(err)
	}

	startedAt := clock.Now().Add(-3 * time.Minute)
	saved := map[uuid.UUID]Answer{
		questions[0].ID: {OptionIndex: intPtr(1)},
		uuid.New():      {Text: "অজানা"}, // Unknown id ignored, not fatal.
	}
	if err := s.Restore(startedAt, saved); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if c := s.Counts(); c.Answered != 1 || c.Unseen != 2 {
		t.Fatalf("counts after restore: %+v", c)
	}
	if rem := s.Remaining(); rem != 7*60 {
		t.Fatalf("remaining=%d, want 420 (original deadline kept)", rem)
	}

	att, err := s.Submit()
	if err != nil {
		t.Fatal(err)
	}
	if att.CorrectCount != 1 || att.TotalScore != 2 {
		t.Fatalf("restored answer not graded: %+v", att)
	}
}

func TestAbandonScoresWhatExists(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	s := newStartedSession(t, test, questions, nil)

	if err := s.SetAnswer(questions[0].ID, Answer{OptionIndex: intPtr(1)}); err != nil {
		t.Fatal(err)
	}

	att, err := s.Abandon()
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if att.Status != model.AttemptStatusAbandoned {
		t.Fatalf("status=%q, want ABANDONED", att.Status)
	}
	if att.CorrectCount != 1 {
		t.Fatal("abandoned attempt lost a recorded answer")
	}
}

func TestDiscardLeavesFinalizedSessionAlone(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	s := newStartedSession(t, test, questions, nil)

	att, err := s.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s.Discard()
	if got := s.Attempt(); got != att {
		t.Fatal("Discard touched a finalized session")
	}
}

func TestOnChangeFiresPerMutation(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)

	var events []Snapshot
	cfg := Config{
		Test:      test,
		Questions: questions,
		OnChange:  func(snap Snapshot) { events = append(events, snap) },
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAnswer(questions[0].ID, Answer{OptionIndex: intPtr(0)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	// Clamped no-op navigation emits nothing.
	if err := s.NavigateTo(1); err != nil {
		t.Fatal(err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d change events, want 3", len(events))
	}
	last := events[len(events)-1]
	if last.CurrentIndex != 1 || last.Counts.Answered != 1 {
		t.Fatalf("unexpected final snapshot: %+v", last)
	}
}
