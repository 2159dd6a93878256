package models

import "time"

// ExportType enumerates generatable reports.
type ExportType string

const (
	ExportAttendanceCSV   ExportType = "ATTENDANCE_CSV"
	ExportLeaveRegisterPDF ExportType = "LEAVE_REGISTER_PDF"
)

// Valid reports whether the export type is supported.
func (t ExportType) Valid() bool {
	return t == ExportAttendanceCSV || t == ExportLeaveRegisterPDF
}

// ExportStatus tracks report generation progress.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusCompleted  ExportStatus = "COMPLETED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob records one asynchronous report generation request.
type ExportJob struct {
	ID          string       `json:"id"`
	Type        ExportType   `json:"type"`
	Status      ExportStatus `json:"status"`
	FilePath    string       `json:"file_path,omitempty"`
	RequestedBy string       `json:"requested_by"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
