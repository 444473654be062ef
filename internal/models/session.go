package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionType selects the rendering back-end for a session. It is fixed at
// creation; changing it would orphan in-flight joins.
type SessionType string

const (
	SessionTypeNative         SessionType = "native"
	SessionTypeExternalPortal SessionType = "external-portal"
)

// Valid returns true when the type is a supported value.
func (t SessionType) Valid() bool {
	return t == SessionTypeNative || t == SessionTypeExternalPortal
}

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusCompleted SessionStatus = "completed"
)

// Terminal reports whether the status permits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCancelled || s == SessionStatusCompleted
}

// Session is one scheduled occurrence of a class meeting.
type Session struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID uuid.UUID `gorm:"type:uuid;not null;index" json:"class_id"`

	// LessonIDs is an ordered, comma-joined list. May be empty: a session
	// does not have to carry curriculum content.
	LessonIDs string `gorm:"column:lesson_ids" json:"lesson_ids"`

	ScheduledStart time.Time `gorm:"not null;index" json:"scheduled_start"`
	ScheduledEnd   time.Time `gorm:"not null" json:"scheduled_end"`

	RoomName    string        `gorm:"uniqueIndex;not null" json:"room_name"`
	SessionType SessionType   `gorm:"not null;default:'native'" json:"session_type"`
	Status      SessionStatus `gorm:"not null;default:'scheduled'" json:"status"`

	// IsLive is a cache of the derived value, never the source of truth.
	IsLive bool `json:"is_live"`

	IsRecurring        bool       `json:"is_recurring"`
	RecurrenceParentID *uuid.UUID `gorm:"type:uuid;index" json:"recurrence_parent_id,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

// Lessons splits the stored lesson list, preserving order.
func (s *Session) Lessons() []string {
	if s.LessonIDs == "" {
		return nil
	}
	return strings.Split(s.LessonIDs, ",")
}

// SetLessons stores an ordered lesson list, dropping empty entries.
func (s *Session) SetLessons(ids []string) {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	s.LessonIDs = strings.Join(clean, ",")
}

// ScheduledDuration is the planned length of the session.
func (s *Session) ScheduledDuration() time.Duration {
	return s.ScheduledEnd.Sub(s.ScheduledStart)
}

// SessionPatch carries the editable fields of a session. Nil means "leave
// unchanged".
type SessionPatch struct {
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	LessonIDs      []string   `json:"lesson_ids,omitempty"`
}
