package main

import (
	"testing"

	"github.com/septivank/octobot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProvideTelegramRequiresToken(t *testing.T) {
	_, err := ProvideTelegram(&config.Config{}, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigurationMissing)
}
