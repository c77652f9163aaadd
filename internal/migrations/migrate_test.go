package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karowl/simportal/internal/config"
)

func TestRunMigrations_InvalidConfig(t *testing.T) {
	t.Run("unreachable database", func(t *testing.T) {
		cfg := &config.Config{
			Database: config.DatabaseConfig{
				Host:     "invalid-host-that-does-not-exist",
				Port:     99999,
				User:     "invalid",
				Password: "invalid",
				DBName:   "invalid",
				SSLMode:  "disable",
			},
		}

		err := RunMigrations(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create migrate instance")
	})

	t.Run("empty database config", func(t *testing.T) {
		err := RunMigrations(&config.Config{})
		assert.Error(t, err)
	})
}

func TestMigrationFiles_Embedded(t *testing.T) {
	expected := []string{
		"000001_create_users_table.up.sql",
		"000001_create_users_table.down.sql",
		"000002_create_sessions_table.up.sql",
		"000002_create_sessions_table.down.sql",
		"000003_create_training_runs_table.up.sql",
		"000003_create_training_runs_table.down.sql",
	}

	for _, name := range expected {
		t.Run(name, func(t *testing.T) {
			data, err := migrationFiles.ReadFile("sql/" + name)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}
}

func TestMigrationFiles_ActiveRunIndex(t *testing.T) {
	data, err := migrationFiles.ReadFile("sql/000003_create_training_runs_table.up.sql")
	require.NoError(t, err)

	// The partial unique index backs the one-active-run guarantee
	assert.Contains(t, string(data), "ux_training_runs_active_email")
	assert.Contains(t, string(data), "WHERE status = 'active'")
}
