// Package attendance ingests liveness heartbeats and maintains per-student
// presence intervals with duration accounting.
package attendance

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutorhub/tutorhub-back/internal/clock"
	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
	"github.com/tutorhub/tutorhub-back/internal/session"
)

// Store is the slice of persistence the recorder needs.
type Store interface {
	InsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error
	CloseAttendance(ctx context.Context, rec *models.AttendanceRecord) error
	GetOpenAttendance(ctx context.Context, sessionID uuid.UUID, studentID string) (*models.AttendanceRecord, error)
	ListAttendanceBySession(ctx context.Context, sessionID uuid.UUID) ([]models.AttendanceRecord, error)
	ListOpenAttendance(ctx context.Context) ([]models.AttendanceRecord, error)
}

// Policy holds the classification and staleness knobs. Thresholds are
// ratios against the scheduled duration, supplied by configuration.
type Policy struct {
	PresentRatio     float64
	PartialRatio     float64
	HeartbeatTimeout time.Duration
}

type openInterval struct {
	rec      *models.AttendanceRecord
	lastBeat time.Time // watermark; batched in memory, flushed on close
}

// Recorder upserts presence intervals keyed by (session, student). The open
// interval per key lives in an in-memory arena so heartbeats never scan for
// an unterminated record.
type Recorder struct {
	store  Store
	clk    clock.Clock
	policy Policy

	mu   sync.Mutex
	open map[string]*openInterval
}

func NewRecorder(store Store, clk clock.Clock, policy Policy) *Recorder {
	return &Recorder{
		store:  store,
		clk:    clk,
		policy: policy,
		open:   make(map[string]*openInterval),
	}
}

func key(sessionID uuid.UUID, studentID string) string {
	return sessionID.String() + "|" + studentID
}

// Restore reloads open intervals after a restart. The last persisted
// JoinedAt is the best watermark available at that point.
func (r *Recorder) Restore(ctx context.Context) error {
	recs, err := r.store.ListOpenAttendance(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range recs {
		rec := recs[i]
		r.open[key(rec.SessionID, rec.StudentID)] = &openInterval{rec: &rec, lastBeat: rec.JoinedAt}
	}
	return nil
}

// Heartbeat opens an interval on the first signal for the pair and refreshes
// the watermark on every later one. Duplicate or reordered signals are
// absorbed: JoinedAt and the watermark only ever move forward.
func (r *Recorder) Heartbeat(ctx context.Context, sess *models.Session, studentID string, ts time.Time) error {
	status := session.DeriveStatus(sess, ts)
	if status == models.SessionStatusCancelled {
		return errs.ErrNotJoinable
	}
	if ts.Before(sess.ScheduledStart.Add(-r.policy.HeartbeatTimeout)) ||
		ts.After(sess.ScheduledEnd.Add(r.policy.HeartbeatTimeout)) {
		return errs.ErrNotJoinable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(sess.ID, studentID)
	if iv, ok := r.open[k]; ok {
		if ts.After(iv.lastBeat) {
			iv.lastBeat = ts
		}
		return nil
	}

	// The arena may be cold for this pair after a restart.
	if rec, err := r.store.GetOpenAttendance(ctx, sess.ID, studentID); err == nil {
		iv := &openInterval{rec: rec, lastBeat: rec.JoinedAt}
		if ts.After(iv.lastBeat) {
			iv.lastBeat = ts
		}
		r.open[k] = iv
		return nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	rec := &models.AttendanceRecord{
		SessionID:   sess.ID,
		StudentID:   studentID,
		JoinedAt:    ts,
		RoomName:    sess.RoomName,
		SessionDate: ts.UTC().Format("2006-01-02"),
	}
	if err := r.store.InsertAttendance(ctx, rec); err != nil {
		return err
	}
	r.open[k] = &openInterval{rec: rec, lastBeat: ts}
	return nil
}

// Leave closes the open interval for the pair. A duplicate leave is a no-op.
// A heartbeat arriving after a leave opens a new, disjoint record.
func (r *Recorder) Leave(ctx context.Context, sess *models.Session, studentID string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(sess.ID, studentID)
	iv, ok := r.open[k]
	if !ok {
		rec, err := r.store.GetOpenAttendance(ctx, sess.ID, studentID)
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		iv = &openInterval{rec: rec, lastBeat: rec.JoinedAt}
	}

	// LeftAt is monotonic: never before the last heartbeat we saw.
	leftAt := ts
	if leftAt.Before(iv.lastBeat) {
		leftAt = iv.lastBeat
	}
	if err := r.close(ctx, iv, leftAt); err != nil {
		return err
	}
	delete(r.open, k)
	return nil
}

// SweepStale closes intervals whose watermark is older than the heartbeat
// timeout, using the true last watermark as LeftAt.
func (r *Recorder) SweepStale(ctx context.Context, now time.Time) (closed int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, iv := range r.open {
		if now.Sub(iv.lastBeat) < r.policy.HeartbeatTimeout {
			continue
		}
		if cerr := r.close(ctx, iv, iv.lastBeat); cerr != nil {
			err = cerr
			continue
		}
		delete(r.open, k)
		closed++
	}
	return closed, err
}

// close finalizes an interval. Clock skew can never produce a negative
// duration: it is clamped to zero, flagged and logged.
func (r *Recorder) close(ctx context.Context, iv *openInterval, leftAt time.Time) error {
	dur := int(leftAt.Sub(iv.rec.JoinedAt).Seconds())
	if dur < 0 {
		log.Printf("attendance: %v for session=%s student=%s, clamping duration",
			errs.ErrClockSkew, iv.rec.SessionID, iv.rec.StudentID)
		dur = 0
		leftAt = iv.rec.JoinedAt
		iv.rec.ClockSkewFlag = true
	}
	iv.rec.LeftAt = &leftAt
	iv.rec.DurationSeconds = dur
	return r.store.CloseAttendance(ctx, iv.rec)
}
