package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tutorhub/tutorhub-back/internal/auth"
	"github.com/tutorhub/tutorhub-back/internal/models"
)

// Identify implements auth.Directory. A subject with teacher assignments is
// a teacher; everyone else is a student, with the campus claim taken from
// their profile when one exists.
func (s *Store) Identify(ctx context.Context, subject string) (auth.Identity, error) {
	ident := auth.Identity{Subject: subject, Role: "student"}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.TeacherAssignment{}).
		Where("teacher_id = ?", subject).
		Count(&count).Error
	if err != nil {
		return ident, err
	}
	if count > 0 {
		ident.Role = "teacher"
		return ident, nil
	}

	var profile models.StudentProfile
	err = s.db.WithContext(ctx).First(&profile, "student_id = ?", subject).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ident, nil
		}
		return ident, err
	}
	ident.CampusID = profile.CampusID
	return ident, nil
}
