// Package schedule expands recurrence rules into concrete session instances.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tutorhub/tutorhub-back/internal/models"
)

var (
	ErrNoDays       = errors.New("recurrence rule selects no weekdays")
	ErrBadTimeRange = errors.New("end time must be after start time")
	ErrNoRange      = errors.New("recurrence rule has neither count nor end date")
)

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

// On anchors the time-of-day onto a calendar date in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// Rule describes one recurring class meeting: a weekday set, a time-of-day
// window and a range (Count takes precedence over Until).
type Rule struct {
	ClassID     uuid.UUID          `json:"class_id"`
	LessonIDs   []string           `json:"lesson_ids"`
	Days        []time.Weekday     `json:"days"` // 0=Sunday .. 6=Saturday
	Start       TimeOfDay          `json:"start"`
	End         TimeOfDay          `json:"end"`
	Count       int                `json:"count"`
	Until       time.Time          `json:"until"`
	SessionType models.SessionType `json:"session_type"`
	Location    *time.Location     `json:"-"`
}

func (r Rule) loc() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}

func (r Rule) validate() error {
	if len(r.Days) == 0 {
		return ErrNoDays
	}
	if r.End.minutes() <= r.Start.minutes() {
		return ErrBadTimeRange
	}
	if r.Count <= 0 && r.Until.IsZero() {
		return ErrNoRange
	}
	return nil
}

// SmartStart returns date itself when its weekday is selected; otherwise the
// next selected weekday strictly after it within the same week, wrapping to
// the smallest selected weekday of the following week if this week has none
// left. The first generated instance therefore always falls on a day the
// caller actually picked.
func SmartStart(date time.Time, days []time.Weekday) time.Time {
	selected := map[time.Weekday]bool{}
	for _, d := range days {
		selected[d] = true
	}
	if selected[date.Weekday()] {
		return date
	}

	// Rest of this week first.
	for wd := date.Weekday() + 1; wd <= time.Saturday; wd++ {
		if selected[wd] {
			return date.AddDate(0, 0, int(wd-date.Weekday()))
		}
	}

	// Wrap to the earliest selected weekday next week.
	first := time.Saturday
	for wd := range selected {
		if wd < first {
			first = wd
		}
	}
	delta := int(7 - date.Weekday() + first)
	return date.AddDate(0, 0, delta)
}

// Expand materializes the rule into sessions starting from anchor. Every
// instance shares the returned anchor id through RecurrenceParentID and gets
// its own room name; two occurrences of the same rule never collide on room
// identity.
func Expand(rule Rule, anchor time.Time) ([]models.Session, uuid.UUID, error) {
	if err := rule.validate(); err != nil {
		return nil, uuid.Nil, err
	}

	anchorID := uuid.New()
	selected := map[time.Weekday]bool{}
	for _, d := range rule.Days {
		selected[d] = true
	}

	loc := rule.loc()
	day := SmartStart(anchor.In(loc), rule.Days)

	var sessions []models.Session
	for {
		if rule.Count > 0 && len(sessions) >= rule.Count {
			break
		}
		if rule.Count <= 0 && day.After(rule.Until) {
			break
		}
		if selected[day.Weekday()] {
			start := rule.Start.On(day, loc)
			end := rule.End.On(day, loc)

			parent := anchorID
			sess := models.Session{
				ID:                 uuid.New(),
				ClassID:            rule.ClassID,
				ScheduledStart:     start,
				ScheduledEnd:       end,
				RoomName:           NewRoomName(rule.ClassID, rule.LessonIDs, start),
				SessionType:        rule.SessionType,
				Status:             models.SessionStatusScheduled,
				IsRecurring:        true,
				RecurrenceParentID: &parent,
			}
			sess.SetLessons(rule.LessonIDs)
			sessions = append(sessions, sess)
		}
		day = day.AddDate(0, 0, 1)
	}

	return sessions, anchorID, nil
}

// NewRoomName derives a globally unique room handle from the class, the
// lesson list and the instance's own start time. The anchor id is
// deliberately not part of it.
func NewRoomName(classID uuid.UUID, lessonIDs []string, start time.Time) string {
	lesson := "general"
	if len(lessonIDs) > 0 {
		lesson = shorten(lessonIDs[0])
	}
	return fmt.Sprintf("room-%s-%s-%d-%s",
		shorten(classID.String()), lesson, start.Unix(), shorten(uuid.NewString()))
}

func shorten(s string) string {
	s = strings.ReplaceAll(s, "-", "")
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
