package session

import (
	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// Score grades a finished attempt. It is a pure function of the final
// answers and statuses and never fails: grading must not crash
// mid-submit, so malformed input degrades (an answer referencing an
// unknown question is simply ignored; it can never reach here through
// Session.SetAnswer anyway).
//
// Policy for written answers (short/long/very-short): they are not
// machine-scored. An answered written question is excluded from the
// correct/wrong tally, reported via NeedsReviewCount, and credited 0
// toward the auto score. There is no negative marking for MCQ.
func Score(
	test *model.MockTest,
	questions []model.Question,
	answers map[uuid.UUID]Answer,
	statuses map[uuid.UUID]Status,
	status model.AttemptStatus,
	timeTakenSeconds int,
) *model.TestAttempt {
	att := &model.TestAttempt{
		ID:               uuid.New(),
		TestID:           test.ID,
		Status:           status,
		TimeTakenSeconds: timeTakenSeconds,
	}

	for _, q := range questions {
		ans, answered := answers[q.ID]
		// A skipped question can never carry an answer (SkipCurrent
		// refuses answered questions), so both checks agree; unseen
		// and skipped are scored alike.
		if !answered || statuses[q.ID].Base == StatusSkipped {
			att.SkippedCount++
			continue
		}

		att.Answers = append(att.Answers, model.AnswerRecord{
			QuestionID:  q.ID,
			OptionIndex: ans.OptionIndex,
			Text:        ans.Text,
		})

		if !q.QuestionType.AutoGradable() {
			att.NeedsReviewCount++
			continue
		}

		correct := q.CorrectOptionIndex()
		if correct >= 0 && ans.OptionIndex != nil && *ans.OptionIndex == correct {
			att.CorrectCount++
			att.TotalScore += q.Marks
		} else {
			att.WrongCount++
		}
	}

	att.MaxScore = test.TotalMarks
	if att.MaxScore == 0 {
		for _, q := range questions {
			att.MaxScore += q.Marks
		}
	}

	if att.MaxScore > 0 {
		// Unrounded; the pass threshold is compared against this value,
		// rounding happens only at display time.
		att.Percentage = float64(att.TotalScore) / float64(att.MaxScore) * 100
		att.Passed = att.Percentage >= test.PassingPercentage
	}

	return att
}
