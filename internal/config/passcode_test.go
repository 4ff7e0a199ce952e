package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasscodeConfig_Defaults(t *testing.T) {
	for _, key := range []string{"OTP_TTL", "OTP_RESEND_COOLDOWN", "OTP_MAX_ATTEMPTS"} {
		t.Setenv(key, "")
	}

	cfg, err := NewPasscodeConfig()
	require.NoError(t, err)
	assert.Equal(t, PasscodeLength, cfg.Length)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, 60*time.Second, cfg.ResendCooldown)
	assert.Equal(t, 5, cfg.MaxAttempts)
}

func TestNewPasscodeConfig_Overrides(t *testing.T) {
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("OTP_RESEND_COOLDOWN", "30s")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")

	cfg, err := NewPasscodeConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.TTL)
	assert.Equal(t, 30*time.Second, cfg.ResendCooldown)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestNewPasscodeConfig_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"OTP_TTL", "0s"},
		{"OTP_TTL", "forever"},
		{"OTP_RESEND_COOLDOWN", "-1s"},
		{"OTP_MAX_ATTEMPTS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			for _, key := range []string{"OTP_TTL", "OTP_RESEND_COOLDOWN", "OTP_MAX_ATTEMPTS"} {
				t.Setenv(key, "")
			}
			t.Setenv(tt.key, tt.value)

			_, err := NewPasscodeConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewPasscodeConfig_LengthIsFixed(t *testing.T) {
	t.Setenv("OTP_LENGTH", "8")

	cfg, err := NewPasscodeConfig()
	require.NoError(t, err)
	assert.Equal(t, PasscodeLength, cfg.Length)

	cfg.Length = 8
	assert.Error(t, cfg.normalize())
}
