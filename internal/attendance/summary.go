package attendance

import (
	"context"
	"time"

	"github.com/tutorhub/tutorhub-back/internal/models"
)

// Summarize classifies every roster member as present, partial or missed by
// the ratio of their accumulated duration to the scheduled duration. Open
// intervals of an in-progress session count provisionally up to now.
func (r *Recorder) Summarize(ctx context.Context, sess *models.Session, roster []string) (*models.AttendanceSummary, error) {
	recs, err := r.store.ListAttendanceBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	now := r.clk.Now()
	horizon := now
	if horizon.After(sess.ScheduledEnd) {
		horizon = sess.ScheduledEnd
	}

	seconds := make(map[string]int)
	intervals := make(map[string]int)
	for _, rec := range recs {
		intervals[rec.StudentID]++
		if rec.Open() {
			provisional := int(horizon.Sub(rec.JoinedAt).Seconds())
			if provisional > 0 {
				seconds[rec.StudentID] += provisional
			}
			continue
		}
		seconds[rec.StudentID] += rec.DurationSeconds
	}

	scheduled := sess.ScheduledDuration()
	summary := &models.AttendanceSummary{
		SessionID: sess.ID,
		Students:  make(map[string]models.StudentSummary, len(roster)),
	}
	for _, studentID := range roster {
		status := classify(time.Duration(seconds[studentID])*time.Second, scheduled, r.policy)
		summary.Students[studentID] = models.StudentSummary{
			Status:          status,
			DurationSeconds: seconds[studentID],
			Intervals:       intervals[studentID],
		}
		switch status {
		case models.PresencePresent:
			summary.Present++
		case models.PresencePartial:
			summary.Partial++
		default:
			summary.Missed++
		}
	}
	return summary, nil
}

func classify(attended, scheduled time.Duration, p Policy) models.PresenceStatus {
	if scheduled <= 0 || attended <= 0 {
		return models.PresenceMissed
	}
	ratio := float64(attended) / float64(scheduled)
	switch {
	case ratio >= p.PresentRatio:
		return models.PresencePresent
	case ratio >= p.PartialRatio:
		return models.PresencePartial
	default:
		return models.PresenceMissed
	}
}
