package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univlabs/campus-portal-api/internal/models"
	"github.com/univlabs/campus-portal-api/internal/service"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
	"github.com/univlabs/campus-portal-api/pkg/response"
)

// ScheduleHandler manages timetable endpoints.
type ScheduleHandler struct {
	service     *service.ScheduleService
	resolver    *service.SessionResolver
	maxFileSize int64
	now         func() time.Time
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService, resolver *service.SessionResolver, maxFileSize int64) *ScheduleHandler {
	return &ScheduleHandler{service: svc, resolver: resolver, maxFileSize: maxFileSize, now: time.Now}
}

// Week godoc
// @Summary Get the weekly timetable
// @Tags Schedule
// @Produce json
// @Param course query string false "Filter by course"
// @Param semester query int false "Filter by semester"
// @Param day query string false "Filter by day"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	var filter models.ScheduleFilter
	filter.Course = c.Query("course")
	if semester, err := strconv.Atoi(c.Query("semester")); err == nil {
		filter.Semester = semester
	}
	if raw := c.Query("day"); raw != "" {
		day, ok := models.ParseWeekDay(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown day"))
			return
		}
		filter.Day = day
	}

	week, err := h.service.Week(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week)
}

// Upload godoc
// @Summary Upload a timetable file
// @Tags Schedule
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV timetable or timetable image"
// @Success 200 {object} response.Envelope
// @Router /schedule [post]
func (h *ScheduleHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the maximum allowed size"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}

	result, err := h.service.Upload(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Clear godoc
// @Summary Remove the entire timetable
// @Tags Schedule
// @Success 204
// @Router /schedule [delete]
func (h *ScheduleHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TodayByTeacher godoc
// @Summary Get a teacher's classes for today with the current one resolved
// @Tags Schedule
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{teacherId} [get]
func (h *ScheduleHandler) TodayByTeacher(c *gin.Context) {
	teacherID := c.Param("teacherId")
	if teacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacher id is required"))
		return
	}

	now := h.now()
	sessions, err := h.service.TodayForTeacher(c.Request.Context(), teacherID, now)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"sessions":      sessions,
		"current_class": h.resolver.Resolve(sessions, now),
	})
}
