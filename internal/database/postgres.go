package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// ConnectPostgres opens the primary gorm connection backing the pipeline store.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for every pipeline aggregate, ordered
// so referenced tables exist before their dependents.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Course{},
		&models.Chapter{},
		&models.ReleasePolicy{},
		&models.ChapterPolicy{},
		&models.DeadlineExtension{},
		&models.Submission{},
		&models.ExtractionRecord{},
		&models.ScoreRecord{},
		&models.DecisionRun{},
		&models.ReleaseState{},
	)
}
