// Package enroll reconciles the two enrollment models: the explicit roster
// on a class and the dynamic campus/grade/group match. Both must agree on
// the room for the same physical class; the resolver fails loudly rather
// than guess when they disagree.
package enroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tutorhub/tutorhub-back/internal/clock"
	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
	"github.com/tutorhub/tutorhub-back/internal/session"
)

// Store is the slice of persistence the resolver needs.
type Store interface {
	GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error)
	ListClassesByStudent(ctx context.Context, studentID string) ([]models.Class, error)
	GetStudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error)
	ListAssignments(ctx context.Context, campusID, gradeCode, groupCode string) ([]models.TeacherAssignment, error)
	ListSessionsByClass(ctx context.Context, classID uuid.UUID) ([]models.Session, error)
	GetSessionByRoomName(ctx context.Context, name string) (*models.Session, error)
}

// ResolutionState tags the outcome of reconciling the two paths.
type ResolutionState string

const (
	StateResolved   ResolutionState = "resolved"
	StateUnresolved ResolutionState = "unresolved"
	StateConflict   ResolutionState = "conflict"
)

// Resolution carries the reconciled room, or the reason there is none.
type Resolution struct {
	State    ResolutionState `json:"state"`
	RoomName string          `json:"room_name,omitempty"`
}

type Resolver struct {
	store Store
	clk   clock.Clock
}

func NewResolver(store Store, clk clock.Clock) *Resolver {
	return &Resolver{store: store, clk: clk}
}

// ResolveExplicit follows the teacher-managed roster. Used for attendance
// rosters and admin management.
func (r *Resolver) ResolveExplicit(ctx context.Context, studentID string) ([]models.Class, error) {
	return r.store.ListClassesByStudent(ctx, studentID)
}

// ResolveDynamic follows profile → teacher assignment on campus+grade+group.
// A student with no profile or no matching assignment sees no classes at
// all; there is no default.
func (r *Resolver) ResolveDynamic(ctx context.Context, studentID string) ([]models.Class, error) {
	profile, err := r.store.GetStudentProfile(ctx, studentID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	assignments, err := r.store.ListAssignments(ctx, profile.CampusID, profile.GradeCode, profile.GroupCode)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{}
	var classes []models.Class
	for _, a := range assignments {
		if seen[a.ClassID] {
			continue
		}
		seen[a.ClassID] = true
		class, err := r.store.GetClass(ctx, a.ClassID)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		classes = append(classes, *class)
	}
	return classes, nil
}

// Resolve reconciles both paths for one student and class. When the paths
// name different rooms the result is Conflict and no room is returned.
func (r *Resolver) Resolve(ctx context.Context, studentID string, classID uuid.UUID) (Resolution, error) {
	explicitRoom, explicitOK, err := r.explicitRoom(ctx, studentID, classID)
	if err != nil {
		return Resolution{State: StateUnresolved}, err
	}
	dynamicRoom, dynamicOK, err := r.dynamicRoom(ctx, studentID, classID)
	if err != nil {
		return Resolution{State: StateUnresolved}, err
	}

	switch {
	case explicitOK && dynamicOK:
		if explicitRoom != dynamicRoom {
			return Resolution{State: StateConflict}, errs.ErrEnrollmentMismatch
		}
		return Resolution{State: StateResolved, RoomName: explicitRoom}, nil
	case explicitOK:
		return Resolution{State: StateResolved, RoomName: explicitRoom}, nil
	case dynamicOK:
		return Resolution{State: StateResolved, RoomName: dynamicRoom}, nil
	default:
		return Resolution{State: StateUnresolved}, nil
	}
}

func (r *Resolver) explicitRoom(ctx context.Context, studentID string, classID uuid.UUID) (string, bool, error) {
	classes, err := r.store.ListClassesByStudent(ctx, studentID)
	if err != nil {
		return "", false, err
	}
	for _, c := range classes {
		if c.ID == classID {
			return r.nextRoom(ctx, classID)
		}
	}
	return "", false, nil
}

func (r *Resolver) dynamicRoom(ctx context.Context, studentID string, classID uuid.UUID) (string, bool, error) {
	profile, err := r.store.GetStudentProfile(ctx, studentID)
	if errors.Is(err, errs.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	assignments, err := r.store.ListAssignments(ctx, profile.CampusID, profile.GradeCode, profile.GroupCode)
	if err != nil {
		return "", false, err
	}
	for _, a := range assignments {
		if a.ClassID != classID {
			continue
		}
		// Assignments imported from the old timetable carry a lesson id
		// and resolve through the historical room name. If no session
		// still answers to that name, fall back to the class's next
		// session.
		if a.LessonID != "" {
			legacy := fmt.Sprintf("class-%s-lesson-%s", classID, a.LessonID)
			sess, err := r.store.GetSessionByRoomName(ctx, legacy)
			if err == nil && !sess.Status.Terminal() {
				return sess.RoomName, true, nil
			}
			if err != nil && !errors.Is(err, errs.ErrNotFound) {
				return "", false, err
			}
		}
		return r.nextRoom(ctx, classID)
	}
	return "", false, nil
}

// nextRoom picks the room of the class's current or next non-cancelled
// session.
func (r *Resolver) nextRoom(ctx context.Context, classID uuid.UUID) (string, bool, error) {
	sessions, err := r.store.ListSessionsByClass(ctx, classID)
	if err != nil {
		return "", false, err
	}
	now := r.clk.Now()
	for _, s := range sessions {
		status := session.DeriveStatus(&s, now)
		if status == models.SessionStatusCancelled || status == models.SessionStatusCompleted {
			continue
		}
		return s.RoomName, true, nil
	}
	return "", false, nil
}
