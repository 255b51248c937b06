package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prostuti-app/prostuti-backend/internal/middleware"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/response"
	"github.com/prostuti-app/prostuti-backend/internal/service"
	"github.com/prostuti-app/prostuti-backend/internal/session"
	"github.com/prostuti-app/prostuti-backend/internal/validator"
)

// AnswerRequest records an answer for one question of the paper.
type AnswerRequest struct {
	QuestionID  uuid.UUID `json:"question_id" binding:"required"`
	OptionIndex *int      `json:"option_index" binding:"omitempty,min=0"`
	Text        string    `json:"text" binding:"omitempty,max=20000"`
}

// IndexRequest addresses a question by its position in the paper.
type IndexRequest struct {
	Index int `json:"index" binding:"min=0"`
}

type AttemptHandler struct {
	attemptService *service.AttemptService
	testService    *service.TestService
}

func NewAttemptHandler(attemptService *service.AttemptService, testService *service.TestService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService, testService: testService}
}

// Paper godoc
// GET /api/v1/tests/:id/paper — the student-facing question paper.
func (h *AttemptHandler) Paper(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.testService.GetPayload(c.Request.Context(), testID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTestNotPublished):
			response.Fail(c, http.StatusForbidden, response.ErrTestNotAvailable)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": payload})
}

// Start godoc
// POST /api/v1/tests/:id/attempt — start or resume the attempt.
func (h *AttemptHandler) Start(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	snap, err := h.attemptService.Start(c.Request.Context(), testID, studentID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": snap})
}

// State godoc
// GET /api/v1/tests/:id/attempt — current state of the attempt.
func (h *AttemptHandler) State(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	snap, err := h.attemptService.GetState(c.Request.Context(), testID, studentID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": snap})
}

// Answer godoc
// POST /api/v1/tests/:id/attempt/answer
func (h *AttemptHandler) Answer(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err := h.attemptService.Answer(c.Request.Context(), testID, studentID, req.QuestionID, session.Answer{
		OptionIndex: req.OptionIndex,
		Text:        req.Text,
	})
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "saved"})
}

// Skip godoc
// POST /api/v1/tests/:id/attempt/skip
func (h *AttemptHandler) Skip(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	if err := h.attemptService.Skip(c.Request.Context(), testID, studentID); err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "skipped"})
}

// Mark godoc
// POST /api/v1/tests/:id/attempt/mark
func (h *AttemptHandler) Mark(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	var req IndexRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.ToggleMark(c.Request.Context(), testID, studentID, req.Index); err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "toggled"})
}

// Navigate godoc
// POST /api/v1/tests/:id/attempt/navigate
func (h *AttemptHandler) Navigate(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	var req IndexRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.Navigate(c.Request.Context(), testID, studentID, req.Index); err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "ok"})
}

// Submit godoc
// POST /api/v1/tests/:id/attempt/submit — finalize and grade.
func (h *AttemptHandler) Submit(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), testID, studentID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attemptView(attempt)})
}

// Abandon godoc
// DELETE /api/v1/tests/:id/attempt — quit the test without submitting.
// The attempt is closed as abandoned and graded from whatever was
// answered so far.
func (h *AttemptHandler) Abandon(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Abandon(c.Request.Context(), testID, studentID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attemptView(attempt)})
}

// Result godoc
// GET /api/v1/tests/:id/attempt/result — the graded result.
func (h *AttemptHandler) Result(c *gin.Context) {
	testID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetResult(c.Request.Context(), testID, studentID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attemptView(attempt)})
}

// History godoc
// GET /api/v1/attempts — the student's attempt history.
func (h *AttemptHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if attempts == nil {
		attempts = []model.AttemptSummary{}
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

func (h *AttemptHandler) attemptParams(c *gin.Context) (uuid.UUID, int, bool) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, 0, false
	}
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, 0, false
	}
	return testID, claims.UserID, true
}

func (h *AttemptHandler) failAttempt(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrTestNotPublished):
		response.Fail(c, http.StatusForbidden, response.ErrTestNotAvailable)
	case errors.Is(err, service.ErrAttemptNotActive):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotActive)
	case errors.Is(err, service.ErrAttemptFinished), errors.Is(err, session.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinished)
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, session.ErrInvalidIndex):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// attemptView shapes a finished attempt for the API: the stored
// percentage is unrounded, display rounding happens here.
func attemptView(a *model.TestAttempt) gin.H {
	return gin.H{
		"id":                 a.ID,
		"test_id":            a.TestID,
		"status":             a.Status,
		"correct_count":      a.CorrectCount,
		"wrong_count":        a.WrongCount,
		"skipped_count":      a.SkippedCount,
		"needs_review_count": a.NeedsReviewCount,
		"total_score":        a.TotalScore,
		"max_score":          a.MaxScore,
		"percentage":         a.DisplayPercentage(),
		"passed":             a.Passed,
		"time_taken_seconds": a.TimeTakenSeconds,
		"started_at":         a.StartedAt,
		"finished_at":        a.FinishedAt,
		"answers":            a.Answers,
	}
}
