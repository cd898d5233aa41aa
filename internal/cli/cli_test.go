package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-picker-backend/internal/config"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMigrateCmd_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "images.db")
	t.Setenv("ENVIRONMENT", config.EnvironmentLocal)
	t.Setenv("DB_DRIVER", config.DriverSQLite)
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"migrate"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, dbPath)
}

func TestMigrateCmd_BadConfigFile(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}
