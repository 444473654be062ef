// Package session owns the lifecycle state machine. Derivations are pure
// functions of stored fields plus a clock reading, so any number of readers
// may compute them concurrently; nothing is written back unless a mutating
// caller persists the promotion explicitly.
package session

import (
	"time"

	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
)

// DeriveStatus computes the effective status at now. Terminal states stick.
// A stored "scheduled" whose window has begun reads as active; anything
// non-terminal past its end reads as completed.
func DeriveStatus(s *models.Session, now time.Time) models.SessionStatus {
	if s.Status.Terminal() {
		return s.Status
	}
	if !now.Before(s.ScheduledEnd) {
		return models.SessionStatusCompleted
	}
	if !now.Before(s.ScheduledStart) {
		return models.SessionStatusActive
	}
	return models.SessionStatusScheduled
}

// IsLive reports whether the session is joinable-live at now. The end
// boundary is exclusive: false at exactly ScheduledEnd.
func IsLive(s *models.Session, now time.Time) bool {
	if DeriveStatus(s, now) != models.SessionStatusActive {
		return false
	}
	return !now.Before(s.ScheduledStart) && now.Before(s.ScheduledEnd)
}

// Derived is the read-time view of a session: the stored record plus its
// promoted status. Reads hand this to callers without writing it back.
type Derived struct {
	models.Session
	EffectiveStatus models.SessionStatus `json:"status"`
	Live            bool                 `json:"is_live"`
}

// Derive builds the read-time view. Auto-completion pins CompletedAt to
// ScheduledEnd, not now, so the audit value stays deterministic.
func Derive(s *models.Session, now time.Time) Derived {
	d := Derived{Session: *s}
	d.EffectiveStatus = DeriveStatus(s, now)
	d.Live = IsLive(s, now)
	d.Status = d.EffectiveStatus
	d.Session.IsLive = d.Live
	if d.EffectiveStatus == models.SessionStatusCompleted && d.CompletedAt == nil {
		end := s.ScheduledEnd
		d.CompletedAt = &end
	}
	return d
}

// Cancel marks a scheduled session cancelled. Cancellation is terminal and a
// status, never a delete. A session that is already running (even if only by
// derived promotion) must be ended through Complete instead, because
// students may be present.
func Cancel(s *models.Session, now time.Time) error {
	status := DeriveStatus(s, now)
	if status != models.SessionStatusScheduled {
		return errs.NewInvalidTransition(string(status), "cancel")
	}
	s.Status = models.SessionStatusCancelled
	s.IsLive = false
	return nil
}

// Complete is the explicit "end session" action. Valid from active; also
// accepted on a non-terminal session past its window, where it finalizes the
// lazy auto-completion. Ending early records now; ending late records
// ScheduledEnd.
func Complete(s *models.Session, now time.Time) error {
	status := DeriveStatus(s, now)
	switch status {
	case models.SessionStatusActive:
		completedAt := now
		s.Status = models.SessionStatusCompleted
		s.CompletedAt = &completedAt
	case models.SessionStatusCompleted:
		if s.Status.Terminal() {
			return errs.NewInvalidTransition(string(status), "complete")
		}
		end := s.ScheduledEnd
		s.Status = models.SessionStatusCompleted
		s.CompletedAt = &end
	default:
		return errs.NewInvalidTransition(string(status), "complete")
	}
	s.IsLive = false
	return nil
}

// ApplyEdit mutates times and lesson linkage. Only sessions that are still
// scheduled (by derived status, so an elapsed window blocks edits even
// before anyone persisted the promotion) may be edited.
func ApplyEdit(s *models.Session, patch models.SessionPatch, now time.Time) error {
	status := DeriveStatus(s, now)
	if status != models.SessionStatusScheduled {
		return errs.NewInvalidTransition(string(status), "edit")
	}

	start := s.ScheduledStart
	end := s.ScheduledEnd
	if patch.ScheduledStart != nil {
		start = *patch.ScheduledStart
	}
	if patch.ScheduledEnd != nil {
		end = *patch.ScheduledEnd
	}
	if !end.After(start) {
		return errs.NewInvalidTransition(string(status), "edit to an empty time window")
	}

	s.ScheduledStart = start
	s.ScheduledEnd = end
	if patch.LessonIDs != nil {
		s.SetLessons(patch.LessonIDs)
	}
	return nil
}

// PromotionFields returns the store patch that persists a derived view.
// Only mutating endpoints write it; hot read paths return Derived values
// without touching the store.
func PromotionFields(d Derived) map[string]interface{} {
	fields := map[string]interface{}{
		"status":  d.EffectiveStatus,
		"is_live": d.Live,
	}
	if d.CompletedAt != nil {
		fields["completed_at"] = *d.CompletedAt
	}
	return fields
}
