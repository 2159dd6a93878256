package models

import "time"

// Teacher is a roster entry surfaced to the student leave form.
type Teacher struct {
	ID          string    `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	Designation *string   `db:"designation" json:"designation,omitempty"`
	Department  *string   `db:"department" json:"department,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
