package auth

import (
	"context"
	"testing"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogMailer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := LogMailer{Logger: zap.New(core)}

	require.NoError(t, m.SendPasscode(context.Background(), "jane@example.com", "123456"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "jane@example.com", fields["email"])
	assert.Equal(t, "123456", fields["code"])
}

func TestNewService_DefaultsMailer(t *testing.T) {
	svc := NewService(nil, nil, config.DefaultPasscodeConfig(), nil, nil, nil)
	_, ok := svc.mailer.(LogMailer)
	assert.True(t, ok)
}
