package models

import "gorm.io/gorm"

// User is an account that can sign in to the calculator.
// An empty PasswordHash disables password login (accounts created from a device registration).
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string `gorm:"size:254" json:"email"`
	PasswordHash string `json:"-"`

	Settings     *UserSettings     `json:"settings,omitempty"`
	Subscription *UserSubscription `json:"subscription,omitempty"`
}
