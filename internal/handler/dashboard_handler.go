package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/academa/academa-api/internal/service"
	appErrors "github.com/academa/academa-api/pkg/errors"
	"github.com/academa/academa-api/pkg/response"
)

// DashboardHandler exposes the dashboard overview endpoint.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Overview godoc
// @Summary Dashboard overview
// @Description Statistics and upcoming deadlines for the semester scope. Served from cache within the freshness window unless force=true.
// @Tags Dashboard
// @Produce json
// @Param semester query string false "Semester label or all"
// @Param force query bool false "Bypass the freshness window"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	force := false
	if value, err := strconv.ParseBool(c.DefaultQuery("force", "false")); err == nil {
		force = value
	}

	overview, cached, err := h.service.Overview(c.Request.Context(), claims.UserID, c.Query("semester"), force)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil, map[string]interface{}{"cached": cached})
}
