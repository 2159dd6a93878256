package models

import (
	"strings"
	"time"
)

// WeekDay names a timetable day. Values match the upload format.
type WeekDay string

const (
	Monday    WeekDay = "MONDAY"
	Tuesday   WeekDay = "TUESDAY"
	Wednesday WeekDay = "WEDNESDAY"
	Thursday  WeekDay = "THURSDAY"
	Friday    WeekDay = "FRIDAY"
	Saturday  WeekDay = "SATURDAY"
	Sunday    WeekDay = "SUNDAY"
)

// WeekDays lists days in display order.
var WeekDays = []WeekDay{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekDay normalises a day label. ok is false for unknown labels.
func ParseWeekDay(raw string) (WeekDay, bool) {
	day := WeekDay(strings.ToUpper(strings.TrimSpace(raw)))
	switch day {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return day, true
	default:
		return "", false
	}
}

// FromTime maps a wall-clock weekday onto the timetable day.
func WeekDayFromTime(t time.Time) WeekDay {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Session is one scheduled class occurrence. StartMinute counts minutes from
// midnight; DurationMin is explicit per session rather than an implicit hour.
type Session struct {
	ID          string    `db:"id" json:"id"`
	Day         WeekDay   `db:"day" json:"day"`
	StartMinute int       `db:"start_minute" json:"start_minute"`
	DurationMin int       `db:"duration_min" json:"duration_min"`
	Subject     string    `db:"subject" json:"subject"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	Course      string    `db:"course" json:"course,omitempty"`
	Semester    int       `db:"semester" json:"semester,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StartClock renders the start time as HH:MM.
func (s Session) StartClock() string {
	h := s.StartMinute / 60
	m := s.StartMinute % 60
	return clock(h, m)
}

// EndMinute is the exclusive end of the session window.
func (s Session) EndMinute() int {
	return s.StartMinute + s.DurationMin
}

func clock(h, m int) string {
	const digits = "0123456789"
	return string([]byte{digits[h/10%10], digits[h%10], ':', digits[m/10%10], digits[m%10]})
}

// ScheduleFilter constrains timetable queries.
type ScheduleFilter struct {
	Course   string
	Semester int
	Day      WeekDay
}

// WeekSchedule groups sessions by day, each day ordered by start time.
type WeekSchedule map[WeekDay][]Session

// ScheduleUploadKind tags the two shapes an upload response can take.
type ScheduleUploadKind string

const (
	// UploadKindRows indicates a structured file was parsed and applied.
	UploadKindRows ScheduleUploadKind = "rows"
	// UploadKindText indicates an image was received and only raw text was
	// extracted; the schedule was not modified.
	UploadKindText ScheduleUploadKind = "extracted_text"
)

// ScheduleUploadResult is the tagged union returned from timetable uploads:
// either rows were processed, or raw text was extracted for manual entry.
type ScheduleUploadResult struct {
	Kind          ScheduleUploadKind `json:"kind"`
	RowsProcessed int                `json:"rows_processed,omitempty"`
	ExtractedText string             `json:"extracted_text,omitempty"`
}
