package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/response"
	"github.com/prostuti-app/prostuti-backend/internal/service"
	"github.com/prostuti-app/prostuti-backend/internal/validator"
)

type ResourceHandler struct {
	resourceService *service.ResourceService
}

func NewResourceHandler(resourceService *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

// ListBySubject godoc
// GET /api/v1/subjects/:id/resources?chapter_id= (student: published only)
// GET /api/v1/admin/subjects/:id/resources (admin: all)
func (h *ResourceHandler) ListBySubject(publishedOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}

		var chapterID *uuid.UUID
		if raw := c.Query("chapter_id"); raw != "" {
			cid, err := uuid.Parse(raw)
			if err != nil {
				response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
				return
			}
			chapterID = &cid
		}

		resources, err := h.resourceService.ListBySubject(c.Request.Context(), subjectID, chapterID, publishedOnly)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		if resources == nil {
			resources = []model.Resource{}
		}
		response.Success(c, http.StatusOK, gin.H{"resources": resources})
	}
}

// Create godoc
// POST /api/v1/admin/resources
func (h *ResourceHandler) Create(c *gin.Context) {
	var req model.CreateResourceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resource, err := h.resourceService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"resource": resource})
}

// Update godoc
// PUT /api/v1/admin/resources/:id
func (h *ResourceHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateResourceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resource, err := h.resourceService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resource": resource})
}

// Delete godoc
// DELETE /api/v1/admin/resources/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.resourceService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "resource deleted"})
}
