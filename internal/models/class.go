package models

import (
	"time"

	"github.com/google/uuid"
)

// Class is the owning unit of sessions. Its roster is the explicit
// enrollment model; campus/grade/group are matched by the dynamic one.
type Class struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	CampusID string    `gorm:"index" json:"campus_id"`

	GradeCode string `json:"grade_code"` // e.g. "11", "12"
	GroupCode string `json:"group_code"` // e.g. "A", "№2"

	Students []ClassStudent `gorm:"foreignKey:ClassID" json:"students,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Class) TableName() string { return "classes" }

// ClassStudent is one explicit roster membership.
type ClassStudent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uuid.UUID `gorm:"type:uuid;not null;index" json:"class_id"`
	StudentID string    `gorm:"not null;index" json:"student_id"`

	Class Class `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (ClassStudent) TableName() string { return "class_students" }

// StudentProfile holds the attributes the dynamic enrollment path matches
// on. StudentID is the identity provider's subject, stored opaque.
type StudentProfile struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StudentID string `gorm:"uniqueIndex;not null" json:"student_id"`
	CampusID  string `gorm:"not null" json:"campus_id"`
	GradeCode string `json:"grade_code"`
	GroupCode string `json:"group_code"`
}

func (StudentProfile) TableName() string { return "student_profiles" }

// TeacherAssignment binds a teacher to a class for one campus+grade+group
// combination. The dynamic enrollment path requires a matching assignment;
// without one a student sees no class at all.
type TeacherAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CampusID  string    `gorm:"not null;index" json:"campus_id"`
	GradeCode string    `gorm:"not null" json:"grade_code"`
	GroupCode string    `json:"group_code"`
	ClassID   uuid.UUID `gorm:"type:uuid;not null" json:"class_id"`
	TeacherID string    `gorm:"not null" json:"teacher_id"`

	// LessonID, when set, lets the dynamic path derive the historical
	// room name for the assignment's subject.
	LessonID string `json:"lesson_id"`
}

func (TeacherAssignment) TableName() string { return "teacher_assignments" }
