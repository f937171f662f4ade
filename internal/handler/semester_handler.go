package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academa/academa-api/internal/service"
	appErrors "github.com/academa/academa-api/pkg/errors"
	"github.com/academa/academa-api/pkg/response"
)

// SemesterHandler exposes the semester registry endpoints.
type SemesterHandler struct {
	service *service.SemesterService
}

// NewSemesterHandler constructs a semester handler.
func NewSemesterHandler(svc *service.SemesterService) *SemesterHandler {
	return &SemesterHandler{service: svc}
}

// List godoc
// @Summary Resolve the semester set
// @Description Registered labels first in registration order, then labels discovered on data rows.
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.service.Resolve(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Add godoc
// @Summary Register a semester label
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body service.AddSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /semesters [post]
func (h *SemesterHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AddSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.service.Add(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Rename godoc
// @Summary Rename a registered semester
// @Description Data rows keep the old label; the rename does not cascade.
// @Tags Semesters
// @Accept json
// @Produce json
// @Param name path string true "Current label"
// @Param payload body service.RenameSemesterRequest true "Rename payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /semesters/{name} [put]
func (h *SemesterHandler) Rename(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RenameSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.service.Rename(c.Request.Context(), claims.UserID, c.Param("name"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Delete godoc
// @Summary Delete a registered semester
// @Description Refused while data still resolves to the label, and for the last registered semester.
// @Tags Semesters
// @Produce json
// @Param name path string true "Label"
// @Success 204
// @Security BearerAuth
// @Router /semesters/{name} [delete]
func (h *SemesterHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetDefault godoc
// @Summary Select the active semester
// @Description "all" clears the selection.
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body service.SetDefaultSemesterRequest true "Selection payload"
// @Success 204
// @Security BearerAuth
// @Router /semesters/default [put]
func (h *SemesterHandler) SetDefault(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SetDefaultSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SetDefault(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetDefault godoc
// @Summary Current active semester
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /semesters/default [get]
func (h *SemesterHandler) GetDefault(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	label, err := h.service.Default(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"semester": label}, nil)
}
