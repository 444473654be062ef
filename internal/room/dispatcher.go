// Package room maps a session onto a rendering strategy: the platform's own
// video back-end or the embedded external portal.
package room

import (
	"context"
	"strings"
	"time"

	"github.com/tutorhub/tutorhub-back/internal/clock"
	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
	"github.com/tutorhub/tutorhub-back/internal/session"
)

// PlacementKind identifies the rendering strategy.
type PlacementKind string

const (
	PlacementNative PlacementKind = "native"
	PlacementPortal PlacementKind = "portal"
)

// Placement tells a client where to go for a session. For portal placements
// the room name is not forwarded to the external system; no correlation is
// possible there, which is a deliberate boundary.
type Placement struct {
	Kind     PlacementKind `json:"kind"`
	RoomName string        `json:"room_name,omitempty"`
	URL      string        `json:"url,omitempty"`
	Live     bool          `json:"live"`
	StartsAt time.Time     `json:"starts_at"`
	EndsAt   time.Time     `json:"ends_at"`
}

// Dispatcher selects placements and validates native rooms against the video
// back-end.
type Dispatcher struct {
	Video     VideoBackend
	PortalURL string
	Clock     clock.Clock
}

func NewDispatcher(video VideoBackend, portalURL string, clk clock.Clock) *Dispatcher {
	return &Dispatcher{Video: video, PortalURL: portalURL, Clock: clk}
}

// Dispatch resolves a session into a placement. Cancelled and completed
// sessions are refused before any back-end call.
func (d *Dispatcher) Dispatch(ctx context.Context, s *models.Session) (*Placement, error) {
	now := d.Clock.Now()
	status := session.DeriveStatus(s, now)
	if status.Terminal() {
		return nil, errs.ErrNotJoinable
	}

	p := &Placement{
		Live:     session.IsLive(s, now),
		StartsAt: s.ScheduledStart,
		EndsAt:   s.ScheduledEnd,
	}

	switch s.SessionType {
	case models.SessionTypeExternalPortal:
		p.Kind = PlacementPortal
		p.URL = d.PortalURL
		return p, nil
	default:
		if err := d.Video.EnsureRoom(ctx, s.RoomName); err != nil {
			return nil, &errs.DispatchError{Reason: "video backend refused room", Err: err}
		}
		p.Kind = PlacementNative
		p.RoomName = s.RoomName
		return p, nil
	}
}

// LegacyRoomRef is the class/lesson pair encoded in historical room names.
type LegacyRoomRef struct {
	ClassID  string
	LessonID string
}

// ParseLegacyRoomName decodes the historical "class-<classId>-lesson-<lessonId>"
// pattern. New room names are opaque and resolved through the store by name;
// this parser exists only as a backward-lookup fallback and its failure is
// never fatal.
func ParseLegacyRoomName(name string) (LegacyRoomRef, bool) {
	if !strings.HasPrefix(name, "class-") {
		return LegacyRoomRef{}, false
	}
	rest := strings.TrimPrefix(name, "class-")
	idx := strings.LastIndex(rest, "-lesson-")
	if idx <= 0 {
		return LegacyRoomRef{}, false
	}
	ref := LegacyRoomRef{
		ClassID:  rest[:idx],
		LessonID: rest[idx+len("-lesson-"):],
	}
	if ref.ClassID == "" || ref.LessonID == "" {
		return LegacyRoomRef{}, false
	}
	return ref, true
}
