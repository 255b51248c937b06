package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

func TestScoreMixedQuestionTypes(t *testing.T) {
	mcq := model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeMCQ,
		Marks:        3,
		Options: []model.Option{
			{Text: "ক"},
			{Text: "খ", IsCorrect: true},
		},
	}
	short := model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeShort,
		Marks:        5,
	}
	long := model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeLong,
		Marks:        10,
	}
	questions := []model.Question{mcq, short, long}
	test := &model.MockTest{
		ID:                uuid.New(),
		TotalMarks:        18,
		TotalQuestions:    3,
		PassingPercentage: 10,
	}

	answers := map[uuid.UUID]Answer{
		mcq.ID:   {OptionIndex: intPtr(1)},
		short.ID: {Text: "নিউটনের দ্বিতীয় সূত্র"},
	}
	statuses := map[uuid.UUID]Status{
		mcq.ID:   {Base: StatusAnswered},
		short.ID: {Base: StatusAnswered},
		long.ID:  {Base: StatusUnseen},
	}

	att := Score(test, questions, answers, statuses, model.AttemptStatusCompleted, 120)

	// Written answers are excluded from correct/wrong and reported
	// separately; they contribute 0 to the auto score.
	if att.CorrectCount != 1 || att.WrongCount != 0 {
		t.Fatalf("correct=%d wrong=%d, want 1/0", att.CorrectCount, att.WrongCount)
	}
	if att.NeedsReviewCount != 1 {
		t.Fatalf("needs_review=%d, want 1", att.NeedsReviewCount)
	}
	if att.SkippedCount != 1 {
		t.Fatalf("skipped=%d, want 1", att.SkippedCount)
	}
	if sum := att.CorrectCount + att.WrongCount + att.NeedsReviewCount + att.SkippedCount; sum != test.TotalQuestions {
		t.Fatalf("tally invariant broken: %d != %d", sum, test.TotalQuestions)
	}
	if att.TotalScore != 3 || att.MaxScore != 18 {
		t.Fatalf("score=%d/%d, want 3/18", att.TotalScore, att.MaxScore)
	}
	if len(att.Answers) != 2 {
		t.Fatalf("answer snapshot has %d records, want 2", len(att.Answers))
	}
}

func TestScoreNoNegativeMarking(t *testing.T) {
	test, questions := newMCQTest(2, 5, 10)
	answers := map[uuid.UUID]Answer{
		questions[0].ID: {OptionIndex: intPtr(0)}, // wrong
		questions[1].ID: {OptionIndex: intPtr(3)}, // wrong
	}
	statuses := map[uuid.UUID]Status{
		questions[0].ID: {Base: StatusAnswered},
		questions[1].ID: {Base: StatusAnswered},
	}

	att := Score(test, questions, answers, statuses, model.AttemptStatusCompleted, 60)
	if att.TotalScore != 0 {
		t.Fatalf("score=%d, want 0 (no negative marking)", att.TotalScore)
	}
	if att.WrongCount != 2 {
		t.Fatalf("wrong=%d, want 2", att.WrongCount)
	}
	if att.Percentage != 0 || att.Passed {
		t.Fatalf("percentage=%v passed=%v, want 0/false", att.Percentage, att.Passed)
	}
}

func TestScoreOutOfRangeOptionIsWrong(t *testing.T) {
	test, questions := newMCQTest(1, 2, 10)
	answers := map[uuid.UUID]Answer{
		questions[0].ID: {OptionIndex: intPtr(17)},
	}
	statuses := map[uuid.UUID]Status{
		questions[0].ID: {Base: StatusAnswered},
	}

	att := Score(test, questions, answers, statuses, model.AttemptStatusCompleted, 10)
	if att.WrongCount != 1 || att.TotalScore != 0 {
		t.Fatalf("out-of-range option: wrong=%d score=%d", att.WrongCount, att.TotalScore)
	}
}

func TestScoreIgnoresUnknownAnswerIDs(t *testing.T) {
	// Grading must never crash mid-submit on malformed input; an answer
	// referencing a question outside the test is dropped.
	test, questions := newMCQTest(2, 1, 10)
	answers := map[uuid.UUID]Answer{
		questions[0].ID: {OptionIndex: intPtr(1)},
		uuid.New():      {OptionIndex: intPtr(1)},
	}
	statuses := map[uuid.UUID]Status{
		questions[0].ID: {Base: StatusAnswered},
	}

	att := Score(test, questions, answers, statuses, model.AttemptStatusCompleted, 30)
	if att.CorrectCount != 1 || att.SkippedCount != 1 {
		t.Fatalf("correct=%d skipped=%d, want 1/1", att.CorrectCount, att.SkippedCount)
	}
	if sum := att.CorrectCount + att.WrongCount + att.SkippedCount; sum != 2 {
		t.Fatalf("tally invariant broken: %d", sum)
	}
}

func TestScoreZeroMaxScoreGuard(t *testing.T) {
	test := &model.MockTest{ID: uuid.New()}
	att := Score(test, nil, nil, nil, model.AttemptStatusCompleted, 0)
	if att.Percentage != 0 {
		t.Fatalf("percentage=%v with empty test, want 0", att.Percentage)
	}
	if att.Passed {
		t.Fatal("empty test cannot be passed")
	}
}

func TestScorePassThresholdUsesUnroundedPercentage(t *testing.T) {
	// 1 of 3 one-mark questions correct: 33.333...%. With a 33.34 bar
	// the attempt fails even though the display rounds to 33.33.
	test, questions := newMCQTest(3, 1, 10)
	test.PassingPercentage = 33.34

	answers := map[uuid.UUID]Answer{
		questions[0].ID: {OptionIndex: intPtr(1)},
	}
	statuses := map[uuid.UUID]Status{
		questions[0].ID: {Base: StatusAnswered},
	}

	att := Score(test, questions, answers, statuses, model.AttemptStatusCompleted, 45)
	if att.Passed {
		t.Fatalf("passed with %v against bar %v", att.Percentage, test.PassingPercentage)
	}
	if got := att.DisplayPercentage(); got != 33.33 {
		t.Fatalf("display percentage=%v, want 33.33", got)
	}

	test.PassingPercentage = 33.33
	att = Score(test, questions, answers, statuses, model.AttemptStatusCompleted, 45)
	if !att.Passed {
		t.Fatalf("failed with %v against bar %v", att.Percentage, test.PassingPercentage)
	}
}

func TestScoreStatusPassthrough(t *testing.T) {
	test, questions := newMCQTest(1, 1, 10)
	for _, status := range []model.AttemptStatus{
		model.AttemptStatusCompleted,
		model.AttemptStatusExpired,
		model.AttemptStatusAbandoned,
	} {
		att := Score(test, questions, nil, nil, status, 5)
		if att.Status != status {
			t.Fatalf("status=%q, want %q", att.Status, status)
		}
	}
}
