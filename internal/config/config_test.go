package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "8085")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "taskswap.db")
	t.Setenv("DB_QUERY_TIMEOUT", "2s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8085", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	tests := []struct {
		name      string
		clientURL string
		allowed   string
		want      []string
	}{
		{"defaults when unset", "", "", Default().AllowedOrigins},
		{"client url replaces defaults", "https://app.example.com", "", []string{"https://app.example.com"}},
		{"both combined", "https://app.example.com", "https://admin.example.com", []string{"https://app.example.com", "https://admin.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv("CLIENT_URL", tt.clientURL)
			t.Setenv("ALLOWED_ORIGINS", tt.allowed)

			cfg, err := Load()
			require.NoError(t, err)

			assert.Equal(t, tt.want, cfg.AllowedOrigins)
			assert.NotContains(t, cfg.AllowedOrigins, "", "no blank origins")
			if tt.clientURL != "" {
				assert.NotContains(t, cfg.AllowedOrigins, "http://localhost:3000")
			}
		})
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "taskswap.yaml")
	content := []byte(`
port: "9000"
jwt_secret: "` + testSecret + `"
database:
  driver: mysql
  name: taskswap
  query_timeout: 3s
log:
  level: debug
  format: json
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "taskswap", cfg.Database.Name)
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidDuration(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_TTL", "forever")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_TTL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "short secret",
			mutate:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "postgres without name",
			mutate:  func(c *Config) { c.Database.Name = ""; c.Database.DSN = "" },
			wantErr: "DATABASE_URL or DB_NAME",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database.Driver = "sqlite"; c.Database.DSN = "" },
			wantErr: "required for sqlite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.JWTSecret = testSecret
			cfg.Database.Name = "taskswap"
			tt.mutate(&cfg)

			err := cfg.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the original one when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
