package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
)

func newSession(start, end time.Time) *models.Session {
	return &models.Session{
		ID:             uuid.New(),
		ClassID:        uuid.New(),
		ScheduledStart: start,
		ScheduledEnd:   end,
		RoomName:       "room-test",
		SessionType:    models.SessionTypeNative,
		Status:         models.SessionStatusScheduled,
	}
}

var (
	start = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end   = start.Add(time.Hour)
)

func TestDeriveStatus(t *testing.T) {
	s := newSession(start, end)

	assert.Equal(t, models.SessionStatusScheduled, DeriveStatus(s, start.Add(-time.Minute)))
	assert.Equal(t, models.SessionStatusActive, DeriveStatus(s, start))
	assert.Equal(t, models.SessionStatusActive, DeriveStatus(s, start.Add(30*time.Minute)))
	assert.Equal(t, models.SessionStatusCompleted, DeriveStatus(s, end))
	assert.Equal(t, models.SessionStatusCompleted, DeriveStatus(s, end.Add(time.Hour)))
}

func TestDeriveStatusTerminalSticks(t *testing.T) {
	s := newSession(start, end)
	s.Status = models.SessionStatusCancelled

	// A cancelled session never reads as active or completed, even inside
	// or past its window.
	assert.Equal(t, models.SessionStatusCancelled, DeriveStatus(s, start.Add(10*time.Minute)))
	assert.Equal(t, models.SessionStatusCancelled, DeriveStatus(s, end.Add(time.Hour)))
}

func TestIsLiveBoundaries(t *testing.T) {
	s := newSession(start, end)

	assert.False(t, IsLive(s, start.Add(-time.Second)))
	assert.True(t, IsLive(s, start), "start boundary is inclusive")
	assert.True(t, IsLive(s, end.Add(-time.Second)))
	assert.False(t, IsLive(s, end), "end boundary is exclusive")
}

func TestDerivePromotesWithoutWrite(t *testing.T) {
	s := newSession(start, end)

	d := Derive(s, start.Add(5*time.Minute))
	assert.Equal(t, models.SessionStatusActive, d.EffectiveStatus)
	assert.True(t, d.Live)
	// The stored record is untouched; promotion lives on the view only.
	assert.Equal(t, models.SessionStatusScheduled, s.Status)
	assert.False(t, s.IsLive)
}

func TestDeriveAutoCompletePinsScheduledEnd(t *testing.T) {
	s := newSession(start, end)

	d := Derive(s, end.Add(3*time.Hour))
	assert.Equal(t, models.SessionStatusCompleted, d.EffectiveStatus)
	assert.False(t, d.Live)
	require.NotNil(t, d.CompletedAt)
	assert.Equal(t, end, *d.CompletedAt, "auto-completion records the scheduled end, not the read time")
	assert.Nil(t, s.CompletedAt)
}

func TestCancelScheduled(t *testing.T) {
	s := newSession(start, end)

	require.NoError(t, Cancel(s, start.Add(-time.Hour)))
	assert.Equal(t, models.SessionStatusCancelled, s.Status)
	assert.False(t, s.IsLive)

	err := Cancel(s, start.Add(-time.Hour))
	assert.True(t, errs.IsInvalidTransition(err), "double cancel is rejected")
}

func TestCancelActiveRejected(t *testing.T) {
	s := newSession(start, end)

	// Stored status is still "scheduled", but the window has begun; the
	// derived promotion blocks the cancel.
	err := Cancel(s, start.Add(time.Minute))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidTransition(err))
	assert.Equal(t, models.SessionStatusScheduled, s.Status)
}

func TestCompleteActive(t *testing.T) {
	s := newSession(start, end)
	now := start.Add(40 * time.Minute)

	require.NoError(t, Complete(s, now))
	assert.Equal(t, models.SessionStatusCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, now, *s.CompletedAt, "ending early records the actual end time")
	assert.False(t, s.IsLive)
}

func TestCompleteAfterWindowFinalizesLazily(t *testing.T) {
	s := newSession(start, end)

	require.NoError(t, Complete(s, end.Add(time.Hour)))
	assert.Equal(t, models.SessionStatusCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, end, *s.CompletedAt)
}

func TestCompleteInvalidStates(t *testing.T) {
	s := newSession(start, end)
	err := Complete(s, start.Add(-time.Minute))
	assert.True(t, errs.IsInvalidTransition(err), "completing before the window is rejected")

	done := newSession(start, end)
	done.Status = models.SessionStatusCompleted
	err = Complete(done, end.Add(time.Minute))
	assert.True(t, errs.IsInvalidTransition(err), "completing twice is rejected")

	cancelled := newSession(start, end)
	cancelled.Status = models.SessionStatusCancelled
	err = Complete(cancelled, start.Add(time.Minute))
	assert.True(t, errs.IsInvalidTransition(err))
}

func TestApplyEdit(t *testing.T) {
	s := newSession(start, end)
	newStart := start.Add(24 * time.Hour)
	newEnd := newStart.Add(90 * time.Minute)

	patch := models.SessionPatch{
		ScheduledStart: &newStart,
		ScheduledEnd:   &newEnd,
		LessonIDs:      []string{"phys-9", "phys-10"},
	}
	require.NoError(t, ApplyEdit(s, patch, start.Add(-time.Hour)))
	assert.Equal(t, newStart, s.ScheduledStart)
	assert.Equal(t, newEnd, s.ScheduledEnd)
	assert.Equal(t, []string{"phys-9", "phys-10"}, s.Lessons())
}

func TestApplyEditGuards(t *testing.T) {
	s := newSession(start, end)
	badEnd := start.Add(-time.Minute)
	err := ApplyEdit(s, models.SessionPatch{ScheduledEnd: &badEnd}, start.Add(-time.Hour))
	assert.True(t, errs.IsInvalidTransition(err), "empty window is rejected")
	assert.Equal(t, end, s.ScheduledEnd, "rejected edit leaves the session untouched")

	// Once the window has begun, edits are blocked by derived status even
	// though nothing was persisted.
	err = ApplyEdit(s, models.SessionPatch{}, start.Add(time.Minute))
	assert.True(t, errs.IsInvalidTransition(err))
}

func TestPromotionFields(t *testing.T) {
	s := newSession(start, end)
	d := Derive(s, end.Add(time.Minute))

	fields := PromotionFields(d)
	assert.Equal(t, models.SessionStatusCompleted, fields["status"])
	assert.Equal(t, false, fields["is_live"])
	assert.Equal(t, end, fields["completed_at"])
}
