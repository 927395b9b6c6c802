package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"risk-calculator-go/internal/accounts"
	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/metrics"
	"risk-calculator-go/internal/models"
	"risk-calculator-go/internal/risk"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrDeviceNotFound = errors.New("device not found")

// Registration describes a registered device.
type Registration struct {
	DeviceID      string `json:"device_id"`
	TrialDaysLeft int    `json:"trial_days_left"`
	IsPaid        bool   `json:"is_paid"`
	IsActive      bool   `json:"is_active"`
	Created       bool   `json:"created"`
}

// Service registers devices and answers access checks against the app control switches.
type Service struct {
	db        *gorm.DB
	accounts  *accounts.Service
	trialDays int
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a subscription service. acc creates the user behind a new device.
func NewService(db *gorm.DB, acc *accounts.Service, cfg config.Subscription, logger *zap.Logger) *Service {
	trialDays := cfg.TrialDays
	if trialDays <= 0 {
		trialDays = 30
	}
	return &Service{
		db:        db,
		accounts:  acc,
		trialDays: trialDays,
		logger:    logger.Named("subscription"),
		now:       time.Now,
	}
}

// RegisterDevice returns the subscription of a device, creating it and its owning user on
// first contact. Registering the same device again changes nothing.
func (s *Service) RegisterDevice(ctx context.Context, deviceID, email string) (*Registration, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, &risk.ValidationError{Field: "device_id", Message: "Device ID required"}
	}

	var (
		device  models.DeviceSubscription
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("device_id = ?", deviceID).First(&device).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load device: %w", err)
		}

		var user models.User
		err = tx.Where("username = ?", deviceID).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			u, err := s.accounts.CreateAccountTx(tx, deviceID, email, "")
			if err != nil {
				return err
			}
			user = *u
		case err != nil:
			return fmt.Errorf("failed to load device user: %w", err)
		}

		device = models.DeviceSubscription{
			DeviceID:   deviceID,
			UserID:     user.ID,
			IsActive:   true,
			TrialStart: s.now(),
			TrialDays:  s.trialDays,
		}
		if err := tx.Create(&device).Error; err != nil {
			return fmt.Errorf("failed to create device subscription: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		// A concurrent registration of the same device may have won the unique index.
		if existing, lookupErr := s.findDevice(ctx, deviceID); lookupErr == nil {
			return s.registration(existing, false), nil
		}
		return nil, err
	}

	if created {
		s.logger.Info("Device registered", zap.String("device_id", deviceID), zap.Uint("user_id", device.UserID))
	}
	return s.registration(&device, created), nil
}

func (s *Service) registration(d *models.DeviceSubscription, created bool) *Registration {
	return &Registration{
		DeviceID:      d.DeviceID,
		TrialDaysLeft: d.TrialDaysLeft(s.now()),
		IsPaid:        d.IsPaid,
		IsActive:      d.IsActive,
		Created:       created,
	}
}

// CheckAccess evaluates the gate for a device. It only reads.
func (s *Service) CheckAccess(ctx context.Context, deviceID string) (Decision, error) {
	control, err := s.Control(ctx)
	if err != nil {
		return Decision{}, err
	}

	var device *models.DeviceSubscription
	if !control.MaintenanceMode {
		device, err = s.findDevice(ctx, strings.TrimSpace(deviceID))
		if err != nil && !errors.Is(err, ErrDeviceNotFound) {
			return Decision{}, err
		}
	}

	d := Decide(control, device, s.now())
	metrics.RecordAccessDecision(d.Reason)
	return d, nil
}

func (s *Service) findDevice(ctx context.Context, deviceID string) (*models.DeviceSubscription, error) {
	if deviceID == "" {
		return nil, ErrDeviceNotFound
	}
	var device models.DeviceSubscription
	err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device %s: %w", deviceID, err)
	}
	return &device, nil
}

// Device returns the subscription row of a device.
func (s *Service) Device(ctx context.Context, deviceID string) (*models.DeviceSubscription, error) {
	return s.findDevice(ctx, strings.TrimSpace(deviceID))
}

// SetActive enables or disables a device.
func (s *Service) SetActive(ctx context.Context, deviceID string, active bool) error {
	return s.updateDevice(ctx, deviceID, map[string]any{"is_active": active})
}

// MarkPaid marks a device as paid, which lifts the trial limit.
func (s *Service) MarkPaid(ctx context.Context, deviceID string) error {
	return s.updateDevice(ctx, deviceID, map[string]any{"is_paid": true})
}

// updateDevice looks the device up first: some drivers report zero affected rows for an
// update that changes nothing.
func (s *Service) updateDevice(ctx context.Context, deviceID string, fields map[string]any) error {
	device, err := s.findDevice(ctx, strings.TrimSpace(deviceID))
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(device).Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update device %s: %w", deviceID, err)
	}
	s.logger.Info("Device updated", zap.String("device_id", deviceID), zap.Any("fields", fields))
	return nil
}

// Control returns the app control row.
func (s *Service) Control(ctx context.Context) (*models.AppControl, error) {
	var control models.AppControl
	err := s.db.WithContext(ctx).Order("id").First(&control).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.AppControl{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load app control: %w", err)
	}
	return &control, nil
}

// SetMaintenance switches maintenance mode. A non-empty message replaces the stored one.
func (s *Service) SetMaintenance(ctx context.Context, on bool, message string) error {
	fields := map[string]any{"maintenance_mode": on}
	if message != "" {
		fields["message"] = message
	}
	return s.updateControl(ctx, fields)
}

// SetForcePayment switches whether expired trials are denied.
func (s *Service) SetForcePayment(ctx context.Context, on bool) error {
	return s.updateControl(ctx, map[string]any{"force_payment": on})
}

func (s *Service) updateControl(ctx context.Context, fields map[string]any) error {
	control, err := s.Control(ctx)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	if control.ID == 0 {
		err = db.Create(control).Error
		if err == nil {
			err = db.Model(control).Updates(fields).Error
		}
	} else {
		err = db.Model(control).Updates(fields).Error
	}
	if err != nil {
		return fmt.Errorf("failed to update app control: %w", err)
	}
	s.logger.Info("App control updated", zap.Any("fields", fields))
	return nil
}
