package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/academa/academa-api/internal/models"
	"github.com/academa/academa-api/internal/service"
	appErrors "github.com/academa/academa-api/pkg/errors"
	"github.com/academa/academa-api/pkg/response"
)

// HomeworkHandler exposes homework endpoints.
type HomeworkHandler struct {
	service *service.HomeworkService
}

// NewHomeworkHandler constructs a homework handler.
func NewHomeworkHandler(svc *service.HomeworkService) *HomeworkHandler {
	return &HomeworkHandler{service: svc}
}

// List godoc
// @Summary List homeworks
// @Tags Homeworks
// @Produce json
// @Param semester query string false "Semester label or all"
// @Param status query string false "Status filter"
// @Param courseId query string false "Course filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /homeworks [get]
func (h *HomeworkHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.HomeworkFilter
	filter.Semester = c.Query("semester")
	filter.Status = c.Query("status")
	filter.CourseID = c.Query("courseId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	homeworks, pagination, err := h.service.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homeworks, pagination)
}

// Get godoc
// @Summary Get a homework
// @Tags Homeworks
// @Produce json
// @Param id path string true "Homework ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /homeworks/{id} [get]
func (h *HomeworkHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	hw, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hw, nil)
}

// Create godoc
// @Summary Create homework
// @Tags Homeworks
// @Accept json
// @Produce json
// @Param payload body service.CreateHomeworkRequest true "Homework payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /homeworks [post]
func (h *HomeworkHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hw, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hw)
}

// Update godoc
// @Summary Update homework
// @Tags Homeworks
// @Accept json
// @Produce json
// @Param id path string true "Homework ID"
// @Param payload body service.UpdateHomeworkRequest true "Homework payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /homeworks/{id} [put]
func (h *HomeworkHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hw, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hw, nil)
}

// Delete godoc
// @Summary Delete homework
// @Tags Homeworks
// @Produce json
// @Param id path string true "Homework ID"
// @Success 204
// @Security BearerAuth
// @Router /homeworks/{id} [delete]
func (h *HomeworkHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
