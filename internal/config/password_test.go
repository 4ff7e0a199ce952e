package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name        string
		bcryptCost  string
		pepper      string
		wantCost    int
		wantErr     bool
		description string
	}{
		{name: "default cost", wantCost: 12, description: "should use default cost of 12 when BCRYPT_COST is not set"},
		{name: "boundary cost 10", bcryptCost: "10", wantCost: 10, description: "should accept minimum valid cost 10"},
		{name: "boundary cost 14", bcryptCost: "14", wantCost: 14, description: "should accept maximum valid cost 14"},
		{name: "cost too low", bcryptCost: "9", wantErr: true, description: "should reject cost below 10"},
		{name: "cost too high", bcryptCost: "15", wantErr: true, description: "should reject cost above 14"},
		{name: "invalid cost", bcryptCost: "invalid", wantErr: true, description: "should reject non-numeric cost"},
		{name: "float cost", bcryptCost: "12.5", wantErr: true, description: "should reject float cost"},
		{name: "with pepper", bcryptCost: "12", pepper: "test-pepper", wantCost: 12, description: "should accept optional pepper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.bcryptCost)
			t.Setenv("PASSWORD_PEPPER", tt.pepper)

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				assert.Error(t, err, tt.description)
				return
			}
			require.NoError(t, err, tt.description)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost, tt.description)
			assert.Equal(t, tt.pepper, cfg.Pepper, tt.description)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r$ecret", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"), "should produce a bcrypt hash")

	assert.True(t, cfg.VerifyPassword("Sup3r$ecret", hash))
	assert.False(t, cfg.VerifyPassword("wrong", hash))
}

func TestPasswordConfig_PepperChangesVerification(t *testing.T) {
	withPepper := &PasswordConfig{BcryptCost: 10, Pepper: "pepper-1"}
	otherPepper := &PasswordConfig{BcryptCost: 10, Pepper: "pepper-2"}

	hash, err := withPepper.HashPassword("Sup3r$ecret")
	require.NoError(t, err)

	assert.True(t, withPepper.VerifyPassword("Sup3r$ecret", hash))
	assert.False(t, otherPepper.VerifyPassword("Sup3r$ecret", hash), "hash must not verify under a different pepper")
}

func TestPasswordConfig_HashUniqueness(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	h1, err := cfg.HashPassword("same-password")
	require.NoError(t, err)
	h2, err := cfg.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "salts should differ between hashes")
}

func TestPasswordConfig_Codes(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 12}

	hash, err := cfg.HashCode("123456")
	require.NoError(t, err)

	assert.True(t, cfg.VerifyCode("123456", hash))
	assert.False(t, cfg.VerifyCode("654321", hash))
}
