package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/academa/academa-api/internal/models"
	"github.com/academa/academa-api/internal/service"
	appErrors "github.com/academa/academa-api/pkg/errors"
	"github.com/academa/academa-api/pkg/response"
)

// AssignmentHandler exposes the unified homework/exam view.
type AssignmentHandler struct {
	service *service.AssignmentService
	exports *service.ExportService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService, exports *service.ExportService) *AssignmentHandler {
	return &AssignmentHandler{service: svc, exports: exports}
}

func listRequestFromQuery(c *gin.Context) service.AssignmentListRequest {
	req := service.AssignmentListRequest{
		Filter: models.AssignmentFilter{
			Semester: c.Query("semester"),
			Status:   c.Query("status"),
			CourseID: c.Query("courseId"),
		},
		SortBy:    c.DefaultQuery("sort", models.SortByDueDate),
		SortOrder: c.DefaultQuery("order", models.OrderAscend),
	}
	if hide, err := strconv.ParseBool(c.DefaultQuery("hideCompleted", "false")); err == nil {
		req.Filter.HideCompleted = hide
	}
	return req
}

// List godoc
// @Summary Unified assignment listing
// @Description Homeworks and exams merged, filtered and sorted.
// @Tags Assignments
// @Produce json
// @Param semester query string false "Semester label or all"
// @Param status query string false "Status filter or all"
// @Param courseId query string false "Course filter or all"
// @Param hideCompleted query bool false "Hide completed assignments"
// @Param sort query string false "dueDate, title, course, status or grade"
// @Param order query string false "ascend or descend"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.List(c.Request.Context(), claims.UserID, listRequestFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Statistics godoc
// @Summary Assignment statistics
// @Tags Assignments
// @Produce json
// @Param semester query string false "Semester label or all"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/statistics [get]
func (h *AssignmentHandler) Statistics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), claims.UserID, c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Upcoming godoc
// @Summary Upcoming assignments grouped by course
// @Tags Assignments
// @Produce json
// @Param semester query string false "Semester label or all"
// @Param window query int false "Window in days"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/upcoming [get]
func (h *AssignmentHandler) Upcoming(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	windowDays := 0
	if window, err := strconv.Atoi(c.DefaultQuery("window", "0")); err == nil {
		windowDays = window
	}
	groups, err := h.service.Upcoming(c.Request.Context(), claims.UserID, c.Query("semester"), windowDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Calendar godoc
// @Summary Month calendar of assignments
// @Description Full-week grid from the Sunday on or before the 1st through the Saturday on or after the last day.
// @Tags Assignments
// @Produce json
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Param semester query string false "Semester label or all"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/calendar [get]
func (h *AssignmentHandler) Calendar(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be an integer"))
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
		return
	}

	index, err := h.service.Calendar(c.Request.Context(), claims.UserID, c.Query("semester"), time.Month(month), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, index, nil)
}

// Export godoc
// @Summary Export the assignment listing
// @Tags Assignments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param semester query string false "Semester label or all"
// @Param status query string false "Status filter or all"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /assignments/export [get]
func (h *AssignmentHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.Assignments(c.Request.Context(), claims.UserID, listRequestFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
