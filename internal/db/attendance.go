package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/tutorhub/tutorhub-back/internal/models"
)

func (s *Store) InsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// CloseAttendance persists the close of an open record.
func (s *Store) CloseAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	return s.db.WithContext(ctx).Model(rec).
		Select("left_at", "duration_seconds", "clock_skew_flag").
		Updates(map[string]interface{}{
			"left_at":          rec.LeftAt,
			"duration_seconds": rec.DurationSeconds,
			"clock_skew_flag":  rec.ClockSkewFlag,
		}).Error
}

// GetOpenAttendance returns the single open record for the pair, if any.
func (s *Store) GetOpenAttendance(ctx context.Context, sessionID uuid.UUID, studentID string) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND student_id = ? AND left_at IS NULL", sessionID, studentID).
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (s *Store) ListAttendanceBySession(ctx context.Context, sessionID uuid.UUID) ([]models.AttendanceRecord, error) {
	var recs []models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("joined_at").
		Find(&recs).Error
	return recs, err
}

// ListOpenAttendance returns every open record; used to rebuild the
// recorder's arena after a restart.
func (s *Store) ListOpenAttendance(ctx context.Context) ([]models.AttendanceRecord, error) {
	var recs []models.AttendanceRecord
	err := s.db.WithContext(ctx).Where("left_at IS NULL").Find(&recs).Error
	return recs, err
}
