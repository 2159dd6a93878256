package models

import "time"

// SubjectAttendance holds raw per-subject counters for one student.
// Attended never exceeds Total; updates violating that are rejected rather
// than clamped.
type SubjectAttendance struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Subject   string    `db:"subject" json:"subject"`
	Attended  int       `db:"attended" json:"attended"`
	Total     int       `db:"total" json:"total"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectAttendanceView decorates a record with its derived ratio.
// Percentage is nil when Total is zero: "no data yet" is distinct from 0%.
type SubjectAttendanceView struct {
	Subject    string `json:"subject"`
	Attended   int    `json:"attended"`
	Total      int    `json:"total"`
	Percentage *int   `json:"percentage"`
	AtRisk     bool   `json:"at_risk"`
}

// AttendanceReport is the per-student aggregation returned to dashboards.
type AttendanceReport struct {
	StudentID string                  `json:"student_id"`
	Subjects  []SubjectAttendanceView `json:"subjects"`
	Overall   *int                    `json:"overall"`
	AtRisk    bool                    `json:"at_risk"`
}
