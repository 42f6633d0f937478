package app

import (
	"path/filepath"
	"testing"
	"time"

	"trialapi/config"
	"trialapi/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Environment:          "test",
		ServerPort:           8080,
		DatabaseDriver:       config.DriverSQLite,
		DatabaseDbPath:       filepath.Join(t.TempDir(), "trials.db"),
		DatabaseAutoMigrate:  true,
		DatabaseQueryTimeout: time.Second,
		EventsChannel:        "trial-records",
	}
}

func TestNewWithConfig(t *testing.T) {
	app, err := NewWithConfig(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.NotNil(t, app.TrialRecordController)
	assert.NotNil(t, app.Validator)
	assert.IsType(t, events.NoopPublisher{}, app.Publisher)
}

func TestNewWithConfig_BadSchemaPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.SchemaPath = filepath.Join(t.TempDir(), "missing.schema.json")

	_, err := NewWithConfig(cfg)
	assert.Error(t, err)
}
