package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// PasscodeLength is the number of digits in a passcode. Clients check codes
// against it before sending them, so it is not configurable.
const PasscodeLength = 6

// PasscodeConfig controls the one-time passcodes sent during sign-up.
type PasscodeConfig struct {
	Length         int
	TTL            time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
}

// DefaultPasscodeConfig returns a 6-digit, 10 minute code with a 60 second resend cooldown.
func DefaultPasscodeConfig() PasscodeConfig {
	return PasscodeConfig{
		Length:         PasscodeLength,
		TTL:            10 * time.Minute,
		ResendCooldown: 60 * time.Second,
		MaxAttempts:    5,
	}
}

// NewPasscodeConfig reads OTP_TTL, OTP_RESEND_COOLDOWN and OTP_MAX_ATTEMPTS.
func NewPasscodeConfig() (*PasscodeConfig, error) {
	cfg := DefaultPasscodeConfig()

	if v := os.Getenv("OTP_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OTP_TTL: %v", err)
		}
		cfg.TTL = d
	}
	if v := os.Getenv("OTP_RESEND_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OTP_RESEND_COOLDOWN: %v", err)
		}
		cfg.ResendCooldown = d
	}
	if v := os.Getenv("OTP_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OTP_MAX_ATTEMPTS: %v", err)
		}
		cfg.MaxAttempts = n
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *PasscodeConfig) normalize() error {
	if c.Length != PasscodeLength {
		return fmt.Errorf("passcode length must be %d, got %d", PasscodeLength, c.Length)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if c.ResendCooldown < 0 {
		return fmt.Errorf("OTP_RESEND_COOLDOWN cannot be negative")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}
