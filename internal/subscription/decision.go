// Package subscription implements the device trial gate: device registration, the access
// decision and the operator switches stored in AppControl.
package subscription

import (
	"time"

	"risk-calculator-go/internal/models"
)

// Decision reasons.
const (
	ReasonOK              = "ok"
	ReasonMaintenance     = "maintenance"
	ReasonNotRegistered   = "not_registered"
	ReasonAccountDisabled = "account_disabled"
	ReasonPaymentRequired = "payment_required"
	ReasonTrialExpired    = "trial_expired"
)

const (
	msgMaintenance     = "App is under maintenance"
	msgNotRegistered   = "Device not registered"
	msgAccountDisabled = "Your account has been disabled"
	msgPaymentRequired = "Trial expired. Payment required to continue"
	msgTrialExpired    = "Trial expired. Please consider subscribing"
)

// Decision is the result of an access check.
type Decision struct {
	Access        bool   `json:"access"`
	Reason        string `json:"reason"`
	Message       string `json:"message,omitempty"`
	Warning       string `json:"warning,omitempty"`
	TrialExpired  bool   `json:"trial_expired"`
	IsPaid        bool   `json:"is_paid"`
	TrialDaysLeft int    `json:"trial_days_left"`
}

// Decide evaluates the gate rules in order. control and device may be nil; a nil device means
// the device is not registered. It never changes any state.
func Decide(control *models.AppControl, device *models.DeviceSubscription, now time.Time) Decision {
	if control != nil && control.MaintenanceMode {
		msg := control.Message
		if msg == "" {
			msg = msgMaintenance
		}
		return Decision{Reason: ReasonMaintenance, Message: msg}
	}

	if device == nil {
		return Decision{Reason: ReasonNotRegistered, Message: msgNotRegistered}
	}

	if !device.IsActive {
		return Decision{Reason: ReasonAccountDisabled, Message: msgAccountDisabled}
	}

	if device.TrialExpired(now) && !device.IsPaid {
		if control != nil && control.ForcePayment {
			return Decision{Reason: ReasonPaymentRequired, Message: msgPaymentRequired, TrialExpired: true}
		}
		return Decision{Access: true, Reason: ReasonTrialExpired, Warning: msgTrialExpired, TrialExpired: true}
	}

	return Decision{
		Access:        true,
		Reason:        ReasonOK,
		IsPaid:        device.IsPaid,
		TrialDaysLeft: device.TrialDaysLeft(now),
	}
}
