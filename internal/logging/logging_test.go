package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-picker-backend/internal/config"
	"photo-picker-backend/internal/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, logging.ParseLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, logging.ParseLevel(" warn "))
	assert.Equal(t, logrus.InfoLevel, logging.ParseLevel("chatty"))
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger := logging.New(config.LogConfig{Level: "debug", Format: "json", File: path})
	logger.WithField("image_id", "abc").Info("image stored")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"image_id":"abc"`)
	assert.Contains(t, string(data), `"msg":"image stored"`)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}
