package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/karowl/simportal/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testConfigPath resolves the config file for DB-backed tests. The
// TEST_CONFIG_PATH env variable overrides the default config.yaml at the
// module root, which is found by walking up from the working directory.
func testConfigPath() string {
	path := os.Getenv("TEST_CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if filepath.IsAbs(path) {
		return path
	}

	dir, err := os.Getwd()
	if err != nil {
		return path
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		dir = parent
	}
}

// LoadTestConfig loads the test configuration, skipping the test when no
// config file is available
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	path := testConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		t.Skipf("Skipping DB-backed test, no config at %s: %v", path, err)
	}
	return cfg
}

// SetupTestDB connects to the configured test database and migrates the
// given models. Tests are skipped when no database is reachable.
func SetupTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	cfg := LoadTestConfig(t)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Skipf("Skipping DB-backed test, cannot connect: %v", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("Failed to migrate test database: %v", err)
		}
	}

	return db
}
