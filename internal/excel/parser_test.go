package excel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tutorhub/tutorhub-back/internal/models"
	"github.com/tutorhub/tutorhub-back/internal/schedule"
)

func writeWorkbook(t *testing.T, classID uuid.UUID) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Monday"))
	require.NoError(t, f.SetCellValue("Monday", "C1", classID.String()))
	require.NoError(t, f.SetCellValue("Monday", "B2", "10:00-11:00"))
	require.NoError(t, f.SetCellValue("Monday", "C2", "math-11"))
	require.NoError(t, f.SetCellValue("Monday", "B3", "12:00-13:00"))
	require.NoError(t, f.SetCellValue("Monday", "C3", "eng-7\nportal"))

	_, err := f.NewSheet("Tuesday")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Tuesday", "C1", classID.String()))
	require.NoError(t, f.SetCellValue("Tuesday", "B2", "10:00-11:00"))
	require.NoError(t, f.SetCellValue("Tuesday", "C2", "math-11"))

	// A sheet that is not a weekday is skipped, not fatal.
	_, err = f.NewSheet("Notes")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "timetable.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseWorkbook(t *testing.T) {
	classID := uuid.New()
	path := writeWorkbook(t, classID)

	slots, err := ParseWorkbook(path)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	for _, s := range slots {
		assert.Equal(t, classID, s.ClassID)
	}
	assert.Equal(t, []string{"math-11"}, slots[0].LessonIDs)
	assert.Equal(t, time.Monday, slots[0].Day)
	assert.Equal(t, schedule.TimeOfDay{Hour: 10, Minute: 0}, slots[0].Start)
	assert.Equal(t, models.SessionTypeNative, slots[0].SessionType)

	assert.Equal(t, []string{"eng-7"}, slots[1].LessonIDs)
	assert.Equal(t, models.SessionTypeExternalPortal, slots[1].SessionType, "a portal marker line switches the session type")

	assert.Equal(t, time.Tuesday, slots[2].Day)
}

func TestParseTimeRange(t *testing.T) {
	start, end, ok := parseTimeRange("09:30-10:15")
	require.True(t, ok)
	assert.Equal(t, schedule.TimeOfDay{Hour: 9, Minute: 30}, start)
	assert.Equal(t, schedule.TimeOfDay{Hour: 10, Minute: 15}, end)

	for _, bad := range []string{"", "10:00", "10:00-09:00", "10:00-10:00", "morning-noon", "10:00-11:00-12:00"} {
		_, _, ok := parseTimeRange(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseDay(t *testing.T) {
	day, ok := parseDay("Понедельник")
	require.True(t, ok)
	assert.Equal(t, time.Monday, day)

	day, ok = parseDay("friday")
	require.True(t, ok)
	assert.Equal(t, time.Friday, day)

	_, ok = parseDay("Notes")
	assert.False(t, ok)
}

func TestBuildRulesMergesWeekdays(t *testing.T) {
	classID := uuid.New()
	window := schedule.TimeOfDay{Hour: 10, Minute: 0}
	windowEnd := schedule.TimeOfDay{Hour: 11, Minute: 0}

	slots := []Slot{
		{ClassID: classID, LessonIDs: []string{"math-11"}, Day: time.Monday, Start: window, End: windowEnd, SessionType: models.SessionTypeNative},
		{ClassID: classID, LessonIDs: []string{"math-11"}, Day: time.Wednesday, Start: window, End: windowEnd, SessionType: models.SessionTypeNative},
		{ClassID: classID, LessonIDs: []string{"eng-7"}, Day: time.Monday, Start: window, End: windowEnd, SessionType: models.SessionTypeExternalPortal},
	}

	until := time.Date(2026, 5, 25, 0, 0, 0, 0, time.UTC)
	rules := BuildRules(slots, until)
	require.Len(t, rules, 2, "same class+lessons+window+type merges into one rule")

	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, rules[0].Days)
	assert.Equal(t, []string{"math-11"}, rules[0].LessonIDs)
	assert.Equal(t, until, rules[0].Until)

	assert.Equal(t, []time.Weekday{time.Monday}, rules[1].Days)
	assert.Equal(t, models.SessionTypeExternalPortal, rules[1].SessionType)
}

type captureWriter struct {
	sessions []models.Session
}

func (w *captureWriter) InsertSessions(_ context.Context, sessions []models.Session) error {
	w.sessions = append(w.sessions, sessions...)
	return nil
}

func TestImportMaterializesSessions(t *testing.T) {
	classID := uuid.New()
	path := writeWorkbook(t, classID)
	writer := &captureWriter{}

	anchor := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	until := anchor.AddDate(0, 0, 13)

	total, err := Import(context.Background(), writer, path, anchor, until)
	require.NoError(t, err)

	// Two weeks of Mon+Tue math plus Mon portal slots.
	assert.Equal(t, 6, total)
	require.Len(t, writer.sessions, 6)

	rooms := map[string]bool{}
	for _, s := range writer.sessions {
		assert.Equal(t, classID, s.ClassID)
		assert.True(t, s.IsRecurring)
		rooms[s.RoomName] = true
	}
	assert.Len(t, rooms, 6)
}
