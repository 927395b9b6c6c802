package models

import (
	"time"

	"gorm.io/gorm"
)

// DeviceSubscription tracks the trial window of a single device.
type DeviceSubscription struct {
	gorm.Model
	DeviceID   string    `gorm:"uniqueIndex;size:255;not null" json:"device_id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	IsPaid     bool      `gorm:"not null;default:false" json:"is_paid"`
	TrialStart time.Time `gorm:"not null" json:"trial_start"`
	TrialDays  int       `gorm:"not null;default:30" json:"trial_days"`
}

// TrialEnd returns the instant the trial window closes.
func (d *DeviceSubscription) TrialEnd() time.Time {
	return d.TrialStart.AddDate(0, 0, d.TrialDays)
}

// TrialExpired reports whether the trial window has closed at now.
func (d *DeviceSubscription) TrialExpired(now time.Time) bool {
	return now.After(d.TrialEnd())
}

// TrialDaysLeft returns the whole days remaining in the trial, never negative.
func (d *DeviceSubscription) TrialDaysLeft(now time.Time) int {
	left := int(d.TrialEnd().Sub(now) / (24 * time.Hour))
	if left < 0 {
		return 0
	}
	return left
}

// AppControl holds the global switches of the access gate.
// There should only ever be one row in this table.
type AppControl struct {
	gorm.Model
	Version         string `gorm:"size:20" json:"version"`
	MaintenanceMode bool   `gorm:"default:false" json:"maintenance_mode"`
	ForcePayment    bool   `gorm:"default:false" json:"force_payment"`
	Message         string `gorm:"type:text" json:"message"`
}
