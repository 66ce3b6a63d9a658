package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
env:
  env: test
  serviceName: intuitive
storage:
  driver: memory
firebase:
  projectId: demo-project
  verifier: jwks
  assertionTtl: 30m
graphql:
  playground: true
cors:
  allowOrigins:
    - http://localhost:5173
`

func writeTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfigYAML), 0o600))

	return dir
}

func TestLoadWithEnv_FileAndEnvOverlay(t *testing.T) {
	dir := writeTestConfig(t)
	t.Chdir(dir)
	t.Setenv("FIREBASE_PROJECTID", "from-env")

	cfg, err := LoadWithEnv[Config]("config")
	require.NoError(t, err)
	applyDefaults(cfg)

	assert.Equal(t, "intuitive", cfg.Env.ServiceName)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "from-env", cfg.Firebase.ProjectID)
	assert.Equal(t, VerifierJWKS, cfg.Firebase.Verifier)
	assert.Equal(t, 30*time.Minute, cfg.Firebase.AssertionTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowOrigins)
	assert.True(t, cfg.GraphQL.Playground)

	assert.Equal(t, defaultGraphQLPath, cfg.GraphQL.Path)
	assert.Equal(t, defaultBcryptCost, cfg.Auth.BcryptCost)
	assert.Equal(t, defaultRequestTimeout, cfg.Firebase.RequestTimeout)
	assert.Equal(t, defaultKeyRefreshInterval, cfg.Firebase.KeyRefreshInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadWithEnv[Config]("config")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Storage.Driver = StorageDriverMemory

		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "memory defaults", mutate: func(*Config) {}},
		{name: "postgres without section", mutate: func(c *Config) { c.Storage.Driver = StorageDriverPostgres }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: true},
		{name: "unknown verifier", mutate: func(c *Config) { c.Firebase.Verifier = "oidc" }, wantErr: true},
		{name: "assertion ttl above 1h", mutate: func(c *Config) { c.Firebase.AssertionTTL = 2 * time.Hour }, wantErr: true},
		{name: "jwks without project", mutate: func(c *Config) { c.Firebase.Verifier = VerifierJWKS }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)

				return
			}
			assert.NoError(t, err)
		})
	}
}
