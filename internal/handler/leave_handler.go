package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univlabs/campus-portal-api/internal/models"
	"github.com/univlabs/campus-portal-api/internal/service"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
	"github.com/univlabs/campus-portal-api/pkg/response"
)

// LeaveHandler manages leave-request endpoints.
type LeaveHandler struct {
	service     *service.LeaveService
	maxFileSize int64
}

// NewLeaveHandler constructs handler.
func NewLeaveHandler(svc *service.LeaveService, maxFileSize int64) *LeaveHandler {
	return &LeaveHandler{service: svc, maxFileSize: maxFileSize}
}

// Submit godoc
// @Summary Submit a leave request
// @Tags Leave
// @Accept multipart/form-data
// @Produce json
// @Param from_date formData string true "Start date (YYYY-MM-DD)"
// @Param to_date formData string true "End date (YYYY-MM-DD)"
// @Param reason formData string true "Reason"
// @Param teacher_name formData string false "Addressed teacher"
// @Param document formData file false "Supporting document"
// @Success 201 {object} response.Envelope
// @Router /leave-requests [post]
func (h *LeaveHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fromDate, err := time.Parse("2006-01-02", c.PostForm("from_date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from_date must be YYYY-MM-DD"))
		return
	}
	toDate, err := time.Parse("2006-01-02", c.PostForm("to_date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to_date must be YYYY-MM-DD"))
		return
	}

	req := service.SubmitLeaveRequest{
		StudentID:    claims.UserID,
		StudentName:  claims.FullName,
		StudentEmail: claims.Email,
		FromDate:     fromDate,
		ToDate:       toDate,
		Reason:       c.PostForm("reason"),
	}
	if teacher := c.PostForm("teacher_name"); teacher != "" {
		req.TeacherName = &teacher
	}

	if fileHeader, err := c.FormFile("document"); err == nil {
		if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "document exceeds the maximum allowed size"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document"))
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document"))
			return
		}
		req.Document = &service.DocumentUpload{Filename: fileHeader.Filename, Data: data}
	}

	request, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List leave requests
// @Tags Leave
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /leave-requests [get]
func (h *LeaveHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.LeaveFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseLeaveStatus(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
			return
		}
		filter.Status = &status
	}
	// Students only ever see their own requests.
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	requests, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests)
}

// Approve godoc
// @Summary Approve a pending leave request
// @Tags Leave
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} response.Envelope
// @Router /leave-requests/{id}/approve [put]
func (h *LeaveHandler) Approve(c *gin.Context) {
	h.review(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a pending leave request
// @Tags Leave
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} response.Envelope
// @Router /leave-requests/{id}/reject [put]
func (h *LeaveHandler) Reject(c *gin.Context) {
	h.review(c, h.service.Reject)
}

func (h *LeaveHandler) review(c *gin.Context, transition func(ctx context.Context, id, reviewerID string) (*models.LeaveRequest, error)) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := transition(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}
