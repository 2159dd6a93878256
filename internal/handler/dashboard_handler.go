package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univlabs/campus-portal-api/internal/service"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
	"github.com/univlabs/campus-portal-api/pkg/response"
)

// DashboardHandler exposes the composed role dashboards.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Admin godoc
// @Summary Get the admin dashboard
// @Tags Dashboard
// @Produce json
// @Param teacherId query string false "Scope the current-class panel to a teacher"
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	dashboard, err := h.service.Admin(c.Request.Context(), c.Query("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard)
}

// Student godoc
// @Summary Get the student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, err := h.service.Student(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard)
}
