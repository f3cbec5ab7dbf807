package models

import (
	"time"

	"gorm.io/gorm"
)

// ChapterPolicy holds the admin-controlled timeline and contribution targets
// for one chapter. CurrentDeadline starts equal to Deadline and only moves
// forward through recorded extensions.
type ChapterPolicy struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	ChapterID           uint       `gorm:"not null;uniqueIndex" json:"chapter_id"`
	Deadline            *time.Time `json:"deadline"`
	CurrentDeadline     *time.Time `gorm:"index" json:"current_deadline"`
	MinContributions    int        `gorm:"not null;default:1" json:"min_contributions"`
	MaxExtensions       int        `gorm:"not null;default:0" json:"max_extensions"`
	MaxDaysPerExtension int        `gorm:"not null;default:0" json:"max_days_per_extension"`
	ExtensionsUsed      int        `gorm:"not null;default:0" json:"extensions_used"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// BeforeSave initialises CurrentDeadline from Deadline the first time the policy is stored.
func (p *ChapterPolicy) BeforeSave(tx *gorm.DB) error {
	if p.Deadline != nil && p.CurrentDeadline == nil {
		deadline := *p.Deadline
		p.CurrentDeadline = &deadline
	}
	return nil
}

// IsOpen reports whether contributions are still accepted. A policy without a
// deadline never closes.
func (p ChapterPolicy) IsOpen(now time.Time) bool {
	if p.CurrentDeadline == nil {
		return true
	}
	return !now.After(*p.CurrentDeadline)
}

// DeadlineExtension is an append-only audit of a deadline change.
type DeadlineExtension struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ChapterPolicyID  uint      `gorm:"not null;index" json:"chapter_policy_id"`
	RequestedByID    *uint     `gorm:"index" json:"requested_by_id"`
	PreviousDeadline time.Time `json:"previous_deadline"`
	NewDeadline      time.Time `json:"new_deadline"`
	Reason           string    `gorm:"type:text" json:"reason"`
	CreatedAt        time.Time `json:"created_at"`
}
