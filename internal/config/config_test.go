package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SHAREIT_DB_PATH", filepath.Join(tmpDir, "shareit.db"))

	configPath := writeFile(t, tmpDir, "config.yaml", `
app:
  environment: test
database:
  path: "${SHAREIT_DB_PATH}"
api:
  http:
    port: 9000
  rate_limit:
    requests: 5
    window: 2
fixtures:
  path: fixtures.yaml
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "shareit.db"), cfg.Database.Path)
	assert.Equal(t, "shareit", cfg.App.Name)
	assert.Equal(t, 9000, cfg.API.HTTP.Port)
	assert.Equal(t, "X-Sharer-User-Id", cfg.API.UserHeader)
	assert.Equal(t, models.DefaultPageSize, cfg.API.DefaultPageSize)
	assert.Equal(t, 5, cfg.API.RateLimit.Requests)
	assert.Equal(t, 2*time.Second, cfg.API.RateLimit.WindowDuration())
	assert.Equal(t, "fixtures.yaml", cfg.Fixtures.Path)
}

func TestLoadConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, tmpDir, "bad.yaml", "database: [")
	_, err = Load(bad)
	assert.Error(t, err)

	noDB := writeFile(t, tmpDir, "nodb.yaml", "app:\n  name: x\n")
	_, err = Load(noDB)
	assert.ErrorContains(t, err, "database path is required")
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{Database: DatabaseConfig{Path: "path"}}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing database", func(c *Config) { c.Database.Path = "" }, true},
		{"bad port", func(c *Config) { c.API.HTTP.Port = 70000 }, true},
		{"empty header", func(c *Config) { c.API.UserHeader = "" }, true},
		{"negative page size", func(c *Config) { c.API.DefaultPageSize = -1 }, true},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true }, true},
		{"redis with address", func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "localhost:6379" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFixtures(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "fixtures.yaml", `
users:
  - id: 1
    name: Alice
    email: alice@example.com
  - id: 2
    name: Bob
    email: bob@example.com
items:
  - id: 1
    name: Drill
    description: Cordless drill
    available: true
    owner_id: 1
  - id: 2
    name: Tent
    description: Four person tent
    available: false
    owner_id: 2
    request_id: 5
`)

	fx, err := LoadFixtures(path)
	require.NoError(t, err)
	require.Len(t, fx.Users, 2)
	require.Len(t, fx.Items, 2)
	assert.True(t, fx.Items[0].Available)
	assert.Nil(t, fx.Items[0].RequestID)
	require.NotNil(t, fx.Items[1].RequestID)
	assert.Equal(t, int64(5), *fx.Items[1].RequestID)
}

func TestValidateFixtures(t *testing.T) {
	users := []models.User{{ID: 1, Name: "Alice", Email: "alice@example.com"}}

	tests := []struct {
		name    string
		fx      Fixtures
		wantErr bool
	}{
		{"valid", Fixtures{Users: users, Items: []models.Item{{ID: 1, Name: "Drill", OwnerID: 1}}}, false},
		{"duplicate user", Fixtures{Users: append(users, models.User{ID: 1, Email: "bob@example.com"})}, true},
		{"duplicate email", Fixtures{Users: append(users, models.User{ID: 2, Email: "alice@example.com"})}, true},
		{"malformed email", Fixtures{Users: append(users, models.User{ID: 2, Email: "not-an-email"})}, true},
		{"zero item id", Fixtures{Users: users, Items: []models.Item{{Name: "Drill", OwnerID: 1}}}, true},
		{"duplicate item", Fixtures{Users: users, Items: []models.Item{{ID: 1, OwnerID: 1}, {ID: 1, OwnerID: 1}}}, true},
		{"unknown owner", Fixtures{Users: users, Items: []models.Item{{ID: 1, OwnerID: 9}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFixtures(&tt.fx)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
