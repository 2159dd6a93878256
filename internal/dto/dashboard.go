package dto

import "github.com/univlabs/campus-portal-api/internal/models"

// AdminDashboardResponse aggregates the admin landing view.
type AdminDashboardResponse struct {
	CurrentClass      *models.Session        `json:"current_class"`
	TodaySessions     []models.Session       `json:"today_sessions"`
	PendingLeaveCount int                    `json:"pending_leave_count"`
	AnnouncementCount int                    `json:"announcement_count"`
	Announcements     []models.Announcement  `json:"announcements"`
	GeneratedAt       string                 `json:"generated_at"`
}

// StudentDashboardResponse aggregates the student landing view.
type StudentDashboardResponse struct {
	CurrentSession *models.Session          `json:"current_session"`
	TodaySessions  []models.Session         `json:"today_sessions"`
	Attendance     *models.AttendanceReport `json:"attendance"`
	Announcements  []models.Announcement    `json:"announcements"`
	LeaveRequests  []models.LeaveRequest    `json:"leave_requests"`
	GeneratedAt    string                   `json:"generated_at"`
}
