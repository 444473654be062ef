package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceRecord is one presence interval for a student in a session.
// At most one record per (session, student) is open (LeftAt == nil) at a
// time; heartbeats extend the open record, they never create a second one.
type AttendanceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_attendance_pair" json:"session_id"`
	StudentID string    `gorm:"not null;index:idx_attendance_pair" json:"student_id"`

	JoinedAt        time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt          *time.Time `json:"left_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`

	// RoomName is denormalized for audit; SessionDate is the calendar date
	// of JoinedAt in the session's zone.
	RoomName    string `gorm:"not null" json:"room_name"`
	SessionDate string `gorm:"type:date" json:"session_date"`

	// ClockSkewFlag marks records whose duration was clamped to zero.
	ClockSkewFlag bool `json:"clock_skew_flag"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AttendanceRecord) TableName() string { return "attendance_records" }

// Open reports whether the interval has not been closed yet.
func (r *AttendanceRecord) Open() bool { return r.LeftAt == nil }

// PresenceStatus classifies a student's attendance for a session.
type PresenceStatus string

const (
	PresencePresent PresenceStatus = "present"
	PresencePartial PresenceStatus = "partial"
	PresenceMissed  PresenceStatus = "missed"
)

// AttendanceSummary aggregates a session's records against its roster.
type AttendanceSummary struct {
	SessionID uuid.UUID                 `json:"session_id"`
	Present   int                       `json:"present"`
	Partial   int                       `json:"partial"`
	Missed    int                       `json:"missed"`
	Students  map[string]StudentSummary `json:"students"`
}

// StudentSummary is one roster entry in a session summary.
type StudentSummary struct {
	Status          PresenceStatus `json:"status"`
	DurationSeconds int            `json:"duration_seconds"`
	Intervals       int            `json:"intervals"`
}
