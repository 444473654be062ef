package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tutorhub/tutorhub-back/internal/models"
)

// Open connects to postgres and migrates the schema.
func Open(dsn string) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = gdb.AutoMigrate(
		&models.Session{},
		&models.AttendanceRecord{},
		&models.Class{},
		&models.ClassStudent{},
		&models.StudentProfile{},
		&models.TeacherAssignment{},
	)
	if err != nil {
		return nil, err
	}

	log.Println("database connected and migrated")
	return &Store{db: gdb}, nil
}

// Store wraps the gorm handle. All reads return stored records unmodified;
// derived-status promotion is the caller's job, not the store's.
type Store struct {
	db *gorm.DB
}

func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
