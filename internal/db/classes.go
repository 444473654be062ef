package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tutorhub/tutorhub-back/internal/models"
)

func (s *Store) GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	var class models.Class
	if err := s.db.WithContext(ctx).Preload("Students").First(&class, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &class, nil
}

func (s *Store) InsertClass(ctx context.Context, class *models.Class) error {
	return s.db.WithContext(ctx).Create(class).Error
}

// ListClassesByStudent follows the explicit roster.
func (s *Store) ListClassesByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	var classes []models.Class
	err := s.db.WithContext(ctx).
		Joins("JOIN class_students ON class_students.class_id = classes.id").
		Where("class_students.student_id = ?", studentID).
		Find(&classes).Error
	return classes, err
}

func (s *Store) GetStudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := s.db.WithContext(ctx).First(&profile, "student_id = ?", studentID).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (s *Store) SaveStudentProfile(ctx context.Context, profile *models.StudentProfile) error {
	var existing models.StudentProfile
	err := s.db.WithContext(ctx).First(&existing, "student_id = ?", profile.StudentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.db.WithContext(ctx).Create(profile).Error
		}
		return err
	}
	return s.db.WithContext(ctx).Model(&existing).Updates(profile).Error
}

// ListAssignments matches teacher assignments on campus and grade. Group is
// matched when the assignment carries one; an empty assignment group applies
// to the whole grade.
func (s *Store) ListAssignments(ctx context.Context, campusID, gradeCode, groupCode string) ([]models.TeacherAssignment, error) {
	var assignments []models.TeacherAssignment
	err := s.db.WithContext(ctx).
		Where("campus_id = ? AND grade_code = ? AND (group_code = ? OR group_code = '')", campusID, gradeCode, groupCode).
		Find(&assignments).Error
	return assignments, err
}

func (s *Store) AddClassStudent(ctx context.Context, classID uuid.UUID, studentID string) error {
	member := models.ClassStudent{ClassID: classID, StudentID: studentID}
	return s.db.WithContext(ctx).Create(&member).Error
}

func (s *Store) RemoveClassStudent(ctx context.Context, classID uuid.UUID, studentID string) error {
	return s.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Delete(&models.ClassStudent{}).Error
}
