package models

import "time"

// Course groups ordered chapters that contributors write content for.
type Course struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"size:64;uniqueIndex" json:"code"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	EducationLevel string    `gorm:"size:32;not null;default:undergrad" json:"education_level"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Chapter is one unit of a course. Number defines the release order.
type Chapter struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;uniqueIndex:idx_course_chapter_number" json:"course_id"`
	Number      int       `gorm:"not null;uniqueIndex:idx_course_chapter_number" json:"number"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Course      Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// ReleaseStrategySequential releases only an unbroken run of chapters starting at chapter 1.
	ReleaseStrategySequential = "sequential"
	// ReleaseStrategyThresholdOnly releases every chapter with a winner once the aggregate threshold is met.
	ReleaseStrategyThresholdOnly = "threshold_only"
)

// ReleasePolicy controls the course-level release threshold.
type ReleasePolicy struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CourseID            uint      `gorm:"not null;uniqueIndex" json:"course_id"`
	ThresholdPercentage int       `gorm:"not null;default:80" json:"threshold_percentage"`
	AutoReleaseEnabled  bool      `gorm:"not null;default:true" json:"auto_release_enabled"`
	Strategy            string    `gorm:"size:32;not null;default:sequential" json:"strategy"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
