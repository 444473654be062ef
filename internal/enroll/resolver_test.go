package enroll

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-back/internal/clock"
	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
)

type fakeStore struct {
	classes     map[uuid.UUID]*models.Class
	roster      map[string][]uuid.UUID
	profiles    map[string]*models.StudentProfile
	assignments []models.TeacherAssignment
	sessions    map[uuid.UUID][]models.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		classes:  map[uuid.UUID]*models.Class{},
		roster:   map[string][]uuid.UUID{},
		profiles: map[string]*models.StudentProfile{},
		sessions: map[uuid.UUID][]models.Session{},
	}
}

func (f *fakeStore) GetClass(_ context.Context, id uuid.UUID) (*models.Class, error) {
	if c, ok := f.classes[id]; ok {
		return c, nil
	}
	return nil, errs.ErrNotFound
}

func (f *fakeStore) ListClassesByStudent(_ context.Context, studentID string) ([]models.Class, error) {
	var out []models.Class
	for _, id := range f.roster[studentID] {
		if c, ok := f.classes[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetStudentProfile(_ context.Context, studentID string) (*models.StudentProfile, error) {
	if p, ok := f.profiles[studentID]; ok {
		return p, nil
	}
	return nil, errs.ErrNotFound
}

func (f *fakeStore) ListAssignments(_ context.Context, campusID, gradeCode, groupCode string) ([]models.TeacherAssignment, error) {
	var out []models.TeacherAssignment
	for _, a := range f.assignments {
		if a.CampusID == campusID && a.GradeCode == gradeCode && (a.GroupCode == groupCode || a.GroupCode == "") {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSessionsByClass(_ context.Context, classID uuid.UUID) ([]models.Session, error) {
	return f.sessions[classID], nil
}

func (f *fakeStore) GetSessionByRoomName(_ context.Context, name string) (*models.Session, error) {
	for _, list := range f.sessions {
		for i := range list {
			if list[i].RoomName == name {
				return &list[i], nil
			}
		}
	}
	return nil, errs.ErrNotFound
}

var resolveNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func addClass(f *fakeStore, campus, grade, group string) *models.Class {
	c := &models.Class{ID: uuid.New(), Name: "11A math", CampusID: campus, GradeCode: grade, GroupCode: group}
	f.classes[c.ID] = c
	return c
}

func addSession(f *fakeStore, classID uuid.UUID, room string, startOffset time.Duration) models.Session {
	s := models.Session{
		ID:             uuid.New(),
		ClassID:        classID,
		ScheduledStart: resolveNow.Add(startOffset),
		ScheduledEnd:   resolveNow.Add(startOffset + time.Hour),
		RoomName:       room,
		SessionType:    models.SessionTypeNative,
		Status:         models.SessionStatusScheduled,
	}
	f.sessions[classID] = append(f.sessions[classID], s)
	return s
}

func newTestResolver(f *fakeStore) *Resolver {
	return NewResolver(f, clock.Fixed{T: resolveNow})
}

func TestResolveAgreementOnBothPaths(t *testing.T) {
	f := newFakeStore()
	class := addClass(f, "main", "11", "A")
	sess := addSession(f, class.ID, "room-next", 2*time.Hour)

	f.roster["alice"] = []uuid.UUID{class.ID}
	f.profiles["alice"] = &models.StudentProfile{StudentID: "alice", CampusID: "main", GradeCode: "11", GroupCode: "A"}
	f.assignments = append(f.assignments, models.TeacherAssignment{
		CampusID: "main", GradeCode: "11", GroupCode: "A", ClassID: class.ID, TeacherID: "t1",
	})

	res, err := newTestResolver(f).Resolve(context.Background(), "alice", class.ID)
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, sess.RoomName, res.RoomName)
}

func TestResolveExplicitOnly(t *testing.T) {
	f := newFakeStore()
	class := addClass(f, "main", "11", "A")
	addSession(f, class.ID, "room-next", 2*time.Hour)

	// On the roster but no profile at all.
	f.roster["bob"] = []uuid.UUID{class.ID}

	res, err := newTestResolver(f).Resolve(context.Background(), "bob", class.ID)
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "room-next", res.RoomName)
}

func TestResolveDynamicOnly(t *testing.T) {
	f := newFakeStore()
	class := addClass(f, "main", "11", "A")
	addSession(f, class.ID, "room-next", 2*time.Hour)

	f.profiles["carol"] = &models.StudentProfile{StudentID: "carol", CampusID: "main", GradeCode: "11", GroupCode: "A"}
	f.assignments = append(f.assignments, models.TeacherAssignment{
		CampusID: "main", GradeCode: "11", GroupCode: "A", ClassID: class.ID, TeacherID: "t1",
	})

	res, err := newTestResolver(f).Resolve(context.Background(), "carol", class.ID)
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "room-next", res.RoomName)
}

func TestResolveUnresolved(t *testing.T) {
	f := newFakeStore()
	class := addClass(f, "main", "11", "A")
	addSession(f, class.ID, "room-next", 2*time.Hour)

	// Neither on the roster nor matched by any assignment.
	f.profiles["dave"] = &models.StudentProfile{StudentID: "dave", CampusID: "other", GradeCode: "9", GroupCode: "B"}

	res, err := newTestResolver(f).Resolve(context.Background(), "dave", class.ID)
	require.NoError(t, err)
	assert.Equal(t, StateUnresolved, res.State)
	assert.Empty(t, res.RoomName)
}

func TestResolveConflictReturnsNoRoom(t *testing.T) {
	f := newFakeStore()
	class := addClass(f, "main", "11", "A")

	// The roster path sees the modern session; the dynamic path resolves
	// through the historical room name of an older, still-open session.
	addSession(f, class.ID, "room-modern", 2*time.Hour)
	addSession(f, class.ID, fmt.Sprintf("class-%s-lesson-math11", class.ID), 5*time.Hour)

	f.roster["eve"] = []uuid.UUID{class.ID}
	f.profiles["eve"] = &models.StudentProfile{StudentID: "eve", CampusID: "main", GradeCode: "11", GroupCode: "A"}
	f.assignments = append(f.assignments, models.TeacherAssignment{
		CampusID: "main", GradeCode: "11", GroupCode: "A", ClassID: class.ID, TeacherID: "t1", LessonID: "math11",
	})

	res, err := newTestResolver(f).Resolve(context.Background(), "eve", class.ID)
	assert.ErrorIs(t, err, errs.ErrEnrollmentMismatch)
	assert.Equal(t, StateConflict, res.State)
	assert.Empty(t, res.RoomName, "a conflicting resolution never hands out a room")
}

func TestResolveDynamicFallsBackWhenLegacyRoomGone(t *testing.T) {
	f := newFakeStore()
	class := addClass(f, "main", "11", "A")
	addSession(f, class.ID, "room-modern", 2*time.Hour)

	f.roster["frank"] = []uuid.UUID{class.ID}
	f.profiles["frank"] = &models.StudentProfile{StudentID: "frank", CampusID: "main", GradeCode: "11", GroupCode: "A"}
	f.assignments = append(f.assignments, models.TeacherAssignment{
		CampusID: "main", GradeCode: "11", GroupCode: "A", ClassID: class.ID, TeacherID: "t1", LessonID: "math11",
	})

	res, err := newTestResolver(f).Resolve(context.Background(), "frank", class.ID)
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "room-modern", res.RoomName)
}

func TestResolveSkipsTerminalSessions(t *testing.T) {
	f := newFakeStore()
	class := addClass(f, "main", "11", "A")

	cancelled := addSession(f, class.ID, "room-cancelled", time.Hour)
	cancelled.Status = models.SessionStatusCancelled
	f.sessions[class.ID][0] = cancelled
	addSession(f, class.ID, "room-upcoming", 3*time.Hour)

	f.roster["gina"] = []uuid.UUID{class.ID}

	res, err := newTestResolver(f).Resolve(context.Background(), "gina", class.ID)
	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "room-upcoming", res.RoomName)
}

func TestResolveDynamicListsNoClassesWithoutAssignment(t *testing.T) {
	f := newFakeStore()
	addClass(f, "main", "11", "A")

	f.profiles["henry"] = &models.StudentProfile{StudentID: "henry", CampusID: "main", GradeCode: "11", GroupCode: "A"}

	classes, err := newTestResolver(f).ResolveDynamic(context.Background(), "henry")
	require.NoError(t, err)
	assert.Empty(t, classes, "no assignment means no classes, not a default")

	// No profile either: same outcome.
	classes, err = newTestResolver(f).ResolveDynamic(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, classes)
}
