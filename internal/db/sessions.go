package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
)

func (s *Store) InsertSession(ctx context.Context, sess *models.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *Store) InsertSessions(ctx context.Context, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&sessions).Error
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

func (s *Store) GetSessionByRoomName(ctx context.Context, name string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).First(&sess, "room_name = ?", name).Error; err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

func (s *Store) ListSessionsByClass(ctx context.Context, classID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("scheduled_start").
		Find(&sessions).Error
	return sessions, err
}

func (s *Store) ListSessionsByTimeRange(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("scheduled_start < ? AND scheduled_end > ?", to, from).
		Order("scheduled_start").
		Find(&sessions).Error
	return sessions, err
}

// ListSessionsByRecurrence returns the instances sharing an anchor, optionally
// only those starting at or after from ("this and following" edits).
func (s *Store) ListSessionsByRecurrence(ctx context.Context, parentID uuid.UUID, from *time.Time) ([]models.Session, error) {
	var sessions []models.Session
	tx := s.db.WithContext(ctx).Where("recurrence_parent_id = ?", parentID)
	if from != nil {
		tx = tx.Where("scheduled_start >= ?", *from)
	}
	err := tx.Order("scheduled_start").Find(&sessions).Error
	return sessions, err
}

// PatchSession applies a partial update to the stored record.
func (s *Store) PatchSession(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}
