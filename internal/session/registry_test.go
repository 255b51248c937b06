package session

import (
	"testing"
	"time"

	"github.com/prostuti-app/prostuti-backend/internal/model"
)

func TestPutIfAbsentKeepsFirstSession(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	first := newStartedSession(t, test, questions, nil)
	second := newStartedSession(t, test, questions, nil)

	reg := NewRegistry()
	if got, inserted := reg.PutIfAbsent(test.ID, 7, first); !inserted || got != first {
		t.Fatalf("first PutIfAbsent: inserted=%v", inserted)
	}

	got, inserted := reg.PutIfAbsent(test.ID, 7, second)
	if inserted {
		t.Fatal("second PutIfAbsent replaced a live session")
	}
	if got != first {
		t.Fatal("second PutIfAbsent did not hand back the registered session")
	}
	if live, ok := reg.Get(test.ID, 7); !ok || live != first {
		t.Fatal("registered session changed under a concurrent start")
	}
	if reg.Len() != 1 {
		t.Fatalf("len=%d, want 1", reg.Len())
	}
}

func TestEvictIgnoresReplacedSession(t *testing.T) {
	test, questions := newMCQTest(3, 1, 10)
	stale := newStartedSession(t, test, questions, nil)
	live := newStartedSession(t, test, questions, nil)

	reg := NewRegistry()
	reg.PutIfAbsent(test.ID, 7, live)

	reg.Evict(test.ID, 7, stale)
	if _, ok := reg.Get(test.ID, 7); !ok {
		t.Fatal("stale eviction removed the live session")
	}

	reg.Evict(test.ID, 7, live)
	if _, ok := reg.Get(test.ID, 7); ok {
		t.Fatal("owning eviction left the session behind")
	}
}

func TestStartRaceConvergesOnOneSession(t *testing.T) {
	// Two devices race to start the same attempt: one session wins the
	// registration, the other is discarded. The discarded copy must
	// never finalize, and answers recorded on the adopted session must
	// survive to grading.
	test, questions := newMCQTest(3, 1, 10)

	winnerFinals, loserFinals := 0, 0
	build := func(finals *int) *Session {
		s, err := New(Config{
			Test:      test,
			Questions: questions,
			StudentID: 7,
			OnFinal:   func(*model.TestAttempt) { *finals++ },
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		return s
	}
	winner := build(&winnerFinals)
	loser := build(&loserFinals)

	reg := NewRegistry()
	reg.PutIfAbsent(test.ID, 7, winner)
	adopted, inserted := reg.PutIfAbsent(test.ID, 7, loser)
	if inserted {
		t.Fatal("loser displaced the live session")
	}
	if adopted != winner {
		t.Fatal("loser was not handed the winning session")
	}
	loser.Discard()

	if err := adopted.SetAnswer(questions[0].ID, Answer{OptionIndex: intPtr(1)}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	// A countdown fire on the discarded copy must be a no-op.
	loser.expire()
	if loserFinals != 0 {
		t.Fatal("discarded session finalized")
	}
	if loser.Attempt() != nil {
		t.Fatal("discarded session produced an attempt")
	}

	att, err := adopted.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if att.CorrectCount != 1 {
		t.Fatalf("correct=%d, want the adopted session's answer graded", att.CorrectCount)
	}
	if winnerFinals != 1 {
		t.Fatalf("winner finalized %d times, want 1", winnerFinals)
	}
}

func TestExpiredOnRestoreStaysReadable(t *testing.T) {
	// Resuming past the deadline finalizes the session before the
	// caller can register it. Registration must still land so the
	// graded result stays readable, and a pointer-matched eviction
	// reclaims the entry.
	test, questions := newMCQTest(3, 1, 1)

	done := make(chan struct{})
	s, err := New(Config{
		Test:      test,
		Questions: questions,
		StudentID: 7,
		OnFinal:   func(*model.TestAttempt) { close(done) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Restore(time.Now().Add(-2*time.Minute), nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry never fired")
	}

	reg := NewRegistry()
	if _, inserted := reg.PutIfAbsent(test.ID, 7, s); !inserted {
		t.Fatal("finalized session was refused registration")
	}
	live, ok := reg.Get(test.ID, 7)
	if !ok {
		t.Fatal("finalized session not found in the registry")
	}
	if live.Phase() != PhaseSubmitted {
		t.Fatalf("phase=%q, want submitted", live.Phase())
	}
	if att := live.Attempt(); att == nil || att.Status != model.AttemptStatusExpired {
		t.Fatal("graded result not readable from the registry")
	}

	reg.Evict(test.ID, 7, s)
	if reg.Len() != 0 {
		t.Fatal("eviction left the finalized session behind")
	}
}
