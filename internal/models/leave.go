package models

import (
	"strings"
	"time"
)

// LeaveStatus captures the leave-request lifecycle states.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "PENDING"
	LeaveStatusApproved LeaveStatus = "APPROVED"
	LeaveStatusRejected LeaveStatus = "REJECTED"
)

// Valid reports whether the status is a supported value.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeaveStatusPending, LeaveStatusApproved, LeaveStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed from s.
func (s LeaveStatus) Terminal() bool {
	return s == LeaveStatusApproved || s == LeaveStatusRejected
}

// ParseLeaveStatus normalises a status label.
func ParseLeaveStatus(raw string) (LeaveStatus, bool) {
	status := LeaveStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if status.Valid() {
		return status, true
	}
	return "", false
}

// LeaveRequest is a student absence request. It starts PENDING, is
// transitioned exactly once by an admin, and is never deleted.
// TeacherName is free-text metadata, not an enforced reference.
type LeaveRequest struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	StudentName  string      `db:"student_name" json:"student_name"`
	StudentEmail string      `db:"student_email" json:"student_email"`
	TeacherName  *string     `db:"teacher_name" json:"teacher_name,omitempty"`
	FromDate     time.Time   `db:"from_date" json:"from_date"`
	ToDate       time.Time   `db:"to_date" json:"to_date"`
	Reason       string      `db:"reason" json:"reason"`
	Document     *string     `db:"document" json:"document,omitempty"`
	Status       LeaveStatus `db:"status" json:"status"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	ReviewedAt   *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy   *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

// LeaveFilter constrains listing queries. A nil Status means all records.
type LeaveFilter struct {
	Status    *LeaveStatus
	StudentID string
}
