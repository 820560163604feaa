package di

import (
	"testing"
	"time"

	"report_embed/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		logger := NewLogger(config.Config{Logging: config.Logging{Level: "debug", Format: "json"}})

		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
	})

	t.Run("text format", func(t *testing.T) {
		logger := NewLogger(config.Config{Logging: config.Logging{Level: "warn", Format: "text"}})

		assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
		assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger := NewLogger(config.Config{Logging: config.Logging{Level: "loud"}})

		assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	})
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(config.Config{PowerBI: config.PowerBI{RequestTimeout: 7 * time.Second}})

	require.NotNil(t, client)
	assert.Equal(t, 7*time.Second, client.Timeout)
	assert.NotNil(t, client.Transport)
}
