// Package excel imports a weekly timetable workbook and turns it into
// recurrence rules. One sheet per weekday; column B carries "HH:MM-HH:MM"
// time ranges; header row columns map to classes; a cell holds the lesson
// ids for that class and slot, with an optional "portal" marker line.
package excel

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/tutorhub/tutorhub-back/internal/models"
	"github.com/tutorhub/tutorhub-back/internal/schedule"
)

// DefaultTermWeeks bounds how far ahead the nightly import materializes
// sessions.
const DefaultTermWeeks = 12

// Slot is one parsed timetable cell: a class meeting on one weekday.
type Slot struct {
	ClassID     uuid.UUID
	LessonIDs   []string
	Day         time.Weekday
	Start       schedule.TimeOfDay
	End         schedule.TimeOfDay
	SessionType models.SessionType
}

// ParseWorkbook walks every weekday sheet and collects slots. Cells that do
// not parse are skipped with a log line, never fatal.
func ParseWorkbook(path string) ([]Slot, error) {
	log.Println("opening timetable workbook:", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var slots []Slot
	for _, sheetName := range f.GetSheetList() {
		day, ok := parseDay(sheetName)
		if !ok {
			log.Printf("skipping sheet %q: not a weekday", sheetName)
			continue
		}
		sheetSlots, err := parseSheet(f, sheetName, day)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		slots = append(slots, sheetSlots...)
	}

	log.Printf("parsed %d timetable slots", len(slots))
	return slots, nil
}

func parseSheet(f *excelize.File, sheetName string, day time.Weekday) ([]Slot, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	colToClass := make(map[string]uuid.UUID)
	var slots []Slot

	for rowIndex, row := range rows {
		for colIndex, cellValue := range row {
			colName, _ := excelize.ColumnNumberToName(colIndex + 1)

			// Header row maps columns to classes.
			if rowIndex == 0 {
				if colName == "A" || colName == "B" || cellValue == "" {
					continue
				}
				classID, err := uuid.Parse(strings.TrimSpace(cellValue))
				if err != nil {
					log.Printf("skipping header col %s: %q is not a class id", colName, cellValue)
					continue
				}
				colToClass[colName] = classID
				continue
			}

			if colName == "A" || colName == "B" {
				continue
			}

			slot, ok := parseCell(f, sheetName, rowIndex, colName, cellValue, colToClass, day)
			if ok {
				slots = append(slots, slot)
			} else if strings.TrimSpace(cellValue) != "" {
				log.Printf("skipped cell at row %d col %s (value: %q)", rowIndex+1, colName, cellValue)
			}
		}
	}
	return slots, nil
}

func parseCell(
	f *excelize.File,
	sheetName string,
	rowIndex int,
	colName string,
	cellValue string,
	colToClass map[string]uuid.UUID,
	day time.Weekday,
) (Slot, bool) {
	lines := strings.Split(cellValue, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return Slot{}, false
	}

	classID, ok := colToClass[colName]
	if !ok {
		return Slot{}, false
	}

	timeCell, _ := f.GetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex+1), excelize.Options{RawCellValue: true})
	start, end, ok := parseTimeRange(timeCell)
	if !ok {
		log.Printf("skipping row %d col %s: bad time range %q", rowIndex+1, colName, timeCell)
		return Slot{}, false
	}

	var lessons []string
	for _, id := range strings.Split(lines[0], ",") {
		if id = strings.TrimSpace(id); id != "" {
			lessons = append(lessons, id)
		}
	}

	sessionType := models.SessionTypeNative
	if len(lines) >= 2 && strings.EqualFold(strings.TrimSpace(lines[1]), "portal") {
		sessionType = models.SessionTypeExternalPortal
	}

	return Slot{
		ClassID:     classID,
		LessonIDs:   lessons,
		Day:         day,
		Start:       start,
		End:         end,
		SessionType: sessionType,
	}, true
}

func parseTimeRange(cell string) (start, end schedule.TimeOfDay, ok bool) {
	parts := strings.Split(cell, "-")
	if len(parts) != 2 {
		return start, end, false
	}
	startT, err := time.Parse("15:04", strings.TrimSpace(parts[0]))
	if err != nil {
		return start, end, false
	}
	endT, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return start, end, false
	}
	start = schedule.TimeOfDay{Hour: startT.Hour(), Minute: startT.Minute()}
	end = schedule.TimeOfDay{Hour: endT.Hour(), Minute: endT.Minute()}
	if end.Hour*60+end.Minute <= start.Hour*60+start.Minute {
		return start, end, false
	}
	return start, end, true
}

func parseDay(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(name, "понедельник"), strings.Contains(name, "mon"):
		return time.Monday, true
	case strings.Contains(name, "вторник"), strings.Contains(name, "tue"):
		return time.Tuesday, true
	case strings.Contains(name, "среда"), strings.Contains(name, "wed"):
		return time.Wednesday, true
	case strings.Contains(name, "четверг"), strings.Contains(name, "thu"):
		return time.Thursday, true
	case strings.Contains(name, "пятница"), strings.Contains(name, "fri"):
		return time.Friday, true
	case strings.Contains(name, "суббота"), strings.Contains(name, "sat"):
		return time.Saturday, true
	case strings.Contains(name, "воскресенье"), strings.Contains(name, "sun"):
		return time.Sunday, true
	default:
		return 0, false
	}
}

// BuildRules merges slots that share class, lessons, window and type into
// one rule spanning several weekdays.
func BuildRules(slots []Slot, until time.Time) []schedule.Rule {
	type ruleKey struct {
		class   uuid.UUID
		lessons string
		start   schedule.TimeOfDay
		end     schedule.TimeOfDay
		kind    models.SessionType
	}

	grouped := make(map[ruleKey][]time.Weekday)
	order := make([]ruleKey, 0)
	for _, s := range slots {
		k := ruleKey{
			class:   s.ClassID,
			lessons: strings.Join(s.LessonIDs, ","),
			start:   s.Start,
			end:     s.End,
			kind:    s.SessionType,
		}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], s.Day)
	}

	rules := make([]schedule.Rule, 0, len(grouped))
	for _, k := range order {
		var lessons []string
		if k.lessons != "" {
			lessons = strings.Split(k.lessons, ",")
		}
		rules = append(rules, schedule.Rule{
			ClassID:     k.class,
			LessonIDs:   lessons,
			Days:        dedupeDays(grouped[k]),
			Start:       k.start,
			End:         k.end,
			Until:       until,
			SessionType: k.kind,
		})
	}
	return rules
}

func dedupeDays(days []time.Weekday) []time.Weekday {
	seen := map[time.Weekday]bool{}
	var out []time.Weekday
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// SessionWriter is the slice of persistence the importer needs.
type SessionWriter interface {
	InsertSessions(ctx context.Context, sessions []models.Session) error
}

// Import parses the workbook and materializes sessions from anchor until
// the end of the term window.
func Import(ctx context.Context, store SessionWriter, path string, anchor, until time.Time) (int, error) {
	slots, err := ParseWorkbook(path)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, rule := range BuildRules(slots, until) {
		sessions, _, err := schedule.Expand(rule, anchor)
		if err != nil {
			log.Printf("skipping rule for class %s: %v", rule.ClassID, err)
			continue
		}
		if err := store.InsertSessions(ctx, sessions); err != nil {
			return total, err
		}
		total += len(sessions)
	}

	log.Printf("imported %d sessions from timetable", total)
	return total, nil
}
