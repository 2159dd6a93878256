package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univlabs/campus-portal-api/internal/service"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
	"github.com/univlabs/campus-portal-api/pkg/response"
)

// AnnouncementHandler manages announcement endpoints.
type AnnouncementHandler struct {
	service *service.AnnouncementService
}

// NewAnnouncementHandler constructs handler.
func NewAnnouncementHandler(svc *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

type postAnnouncementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// List godoc
// @Summary List announcements newest-first
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	announcements, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements)
}

// Post godoc
// @Summary Publish an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Post(c *gin.Context) {
	var req postAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	announcement, err := h.service.Post(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Remove godoc
// @Summary Delete an announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
