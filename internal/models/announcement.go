package models

import "time"

// Announcement is a portal-wide notice. There is no edit operation; updates
// are delete + repost.
type Announcement struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
