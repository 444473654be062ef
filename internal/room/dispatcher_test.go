package room

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-back/internal/clock"
	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
)

type recordingBackend struct {
	rooms []string
	err   error
}

func (b *recordingBackend) EnsureRoom(_ context.Context, roomName string) error {
	b.rooms = append(b.rooms, roomName)
	return b.err
}

var dispatchNow = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func dispatchSession(typ models.SessionType) *models.Session {
	return &models.Session{
		ID:             uuid.New(),
		ClassID:        uuid.New(),
		ScheduledStart: dispatchNow.Add(-30 * time.Minute),
		ScheduledEnd:   dispatchNow.Add(30 * time.Minute),
		RoomName:       "room-abc123",
		SessionType:    typ,
		Status:         models.SessionStatusScheduled,
	}
}

func newTestDispatcher(backend VideoBackend) *Dispatcher {
	return NewDispatcher(backend, "https://portal.example.com/embed", clock.Fixed{T: dispatchNow})
}

func TestDispatchNative(t *testing.T) {
	backend := &recordingBackend{}
	d := newTestDispatcher(backend)
	sess := dispatchSession(models.SessionTypeNative)

	p, err := d.Dispatch(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, PlacementNative, p.Kind)
	assert.Equal(t, sess.RoomName, p.RoomName)
	assert.Empty(t, p.URL)
	assert.True(t, p.Live)
	assert.Equal(t, []string{sess.RoomName}, backend.rooms)
}

func TestDispatchPortalDoesNotForwardRoom(t *testing.T) {
	backend := &recordingBackend{}
	d := newTestDispatcher(backend)
	sess := dispatchSession(models.SessionTypeExternalPortal)

	p, err := d.Dispatch(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, PlacementPortal, p.Kind)
	assert.Equal(t, "https://portal.example.com/embed", p.URL)
	assert.Empty(t, p.RoomName, "the room name stays out of the portal placement")
	assert.Empty(t, backend.rooms, "portal sessions never touch the video back-end")
}

func TestDispatchUpcomingIsNotLive(t *testing.T) {
	d := newTestDispatcher(&recordingBackend{})
	sess := dispatchSession(models.SessionTypeNative)
	sess.ScheduledStart = dispatchNow.Add(time.Hour)
	sess.ScheduledEnd = dispatchNow.Add(2 * time.Hour)

	p, err := d.Dispatch(context.Background(), sess)
	require.NoError(t, err)
	assert.False(t, p.Live)
	assert.Equal(t, sess.ScheduledStart, p.StartsAt)
}

func TestDispatchRefusesTerminal(t *testing.T) {
	backend := &recordingBackend{}
	d := newTestDispatcher(backend)

	cancelled := dispatchSession(models.SessionTypeNative)
	cancelled.Status = models.SessionStatusCancelled
	_, err := d.Dispatch(context.Background(), cancelled)
	assert.ErrorIs(t, err, errs.ErrNotJoinable)

	elapsed := dispatchSession(models.SessionTypeNative)
	elapsed.ScheduledStart = dispatchNow.Add(-2 * time.Hour)
	elapsed.ScheduledEnd = dispatchNow.Add(-time.Hour)
	_, err = d.Dispatch(context.Background(), elapsed)
	assert.ErrorIs(t, err, errs.ErrNotJoinable, "an elapsed window refuses joins even before promotion is persisted")

	assert.Empty(t, backend.rooms, "refusal happens before any back-end call")
}

func TestDispatchWrapsBackendFailure(t *testing.T) {
	backend := &recordingBackend{err: ErrRoomFull}
	d := newTestDispatcher(backend)

	_, err := d.Dispatch(context.Background(), dispatchSession(models.SessionTypeNative))
	require.Error(t, err)
	var de *errs.DispatchError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestParseLegacyRoomName(t *testing.T) {
	ref, ok := ParseLegacyRoomName("class-42-lesson-math11")
	require.True(t, ok)
	assert.Equal(t, "42", ref.ClassID)
	assert.Equal(t, "math11", ref.LessonID)

	// Ids may contain dashes; the last "-lesson-" separator wins.
	ref, ok = ParseLegacyRoomName("class-abc-def-lesson-phys-9")
	require.True(t, ok)
	assert.Equal(t, "abc-def", ref.ClassID)
	assert.Equal(t, "phys-9", ref.LessonID)

	for _, name := range []string{
		"room-abc123-general-1234-xyz",
		"class--lesson-math",
		"class-42-lesson-",
		"class-42",
		"",
	} {
		_, ok := ParseLegacyRoomName(name)
		assert.False(t, ok, name)
	}
}
