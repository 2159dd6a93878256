package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univlabs/campus-portal-api/internal/service"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
	"github.com/univlabs/campus-portal-api/pkg/response"
)

// AttendanceHandler manages attendance endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
	capture *service.CaptureService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(svc *service.AttendanceService, capture *service.CaptureService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, capture: capture}
}

// StudentReport godoc
// @Summary Get a student's per-subject and overall attendance
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *AttendanceHandler) StudentReport(c *gin.Context) {
	report, err := h.service.StudentReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Record godoc
// @Summary Record attendance counters for a student and subject
// @Tags Attendance
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance [put]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	record, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// StartCapture godoc
// @Summary Trigger camera-based attendance capture
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /start-attendance [post]
func (h *AttendanceHandler) StartCapture(c *gin.Context) {
	result, err := h.capture.StartCapture(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
