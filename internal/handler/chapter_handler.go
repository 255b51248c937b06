package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/response"
	"github.com/prostuti-app/prostuti-backend/internal/service"
	"github.com/prostuti-app/prostuti-backend/internal/validator"
)

type ChapterHandler struct {
	chapterService *service.ChapterService
}

func NewChapterHandler(chapterService *service.ChapterService) *ChapterHandler {
	return &ChapterHandler{chapterService: chapterService}
}

// ListBySubject godoc
// GET /api/v1/subjects/:id/chapters (student: published only)
// GET /api/v1/admin/subjects/:id/chapters (admin: all)
func (h *ChapterHandler) ListBySubject(publishedOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}

		chapters, err := h.chapterService.ListBySubject(c.Request.Context(), subjectID, publishedOnly)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		if chapters == nil {
			chapters = []model.Chapter{}
		}
		response.Success(c, http.StatusOK, gin.H{"chapters": chapters})
	}
}

// Create godoc
// POST /api/v1/admin/subjects/:id/chapters
func (h *ChapterHandler) Create(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateChapterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	chapter, err := h.chapterService.Create(c.Request.Context(), subjectID, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"chapter": chapter})
}

// Update godoc
// PUT /api/v1/admin/chapters/:id
func (h *ChapterHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateChapterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	chapter, err := h.chapterService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"chapter": chapter})
}

// Delete godoc
// DELETE /api/v1/admin/chapters/:id
func (h *ChapterHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.chapterService.Delete(c.Request.Context(), id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "chapter deleted"})
}
