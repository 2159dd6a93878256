package service

import (
	"sort"
	"time"

	"github.com/univlabs/campus-portal-api/internal/models"
)

// SessionResolver maps a day's sessions and a wall-clock instant to the
// currently active session. Resolution is a pure function of its inputs and
// is safe to call on every poll tick.
type SessionResolver struct {
	defaultDuration time.Duration
}

// NewSessionResolver constructs a resolver. defaultDuration applies to
// sessions whose duration was not set on upload.
func NewSessionResolver(defaultDuration time.Duration) *SessionResolver {
	if defaultDuration <= 0 {
		defaultDuration = time.Hour
	}
	return &SessionResolver{defaultDuration: defaultDuration}
}

// Resolve returns the latest session whose window [start, start+duration)
// contains now, or nil when no window does. It never falls back to "next" or
// "most recent"; callers decide fallback display. Input order is not trusted:
// schedule data arrives from upload paths, so the slice is re-sorted before
// the walk.
func (r *SessionResolver) Resolve(sessions []models.Session, now time.Time) *models.Session {
	if len(sessions) == 0 {
		return nil
	}

	sorted := make([]models.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartMinute < sorted[j].StartMinute
	})

	minute := now.Hour()*60 + now.Minute()

	var current *models.Session
	for i := range sorted {
		s := &sorted[i]
		if minute < s.StartMinute {
			break
		}
		duration := s.DurationMin
		if duration <= 0 {
			duration = int(r.defaultDuration.Minutes())
		}
		if minute < s.StartMinute+duration {
			current = s
		}
	}

	if current == nil {
		return nil
	}
	result := *current
	return &result
}
