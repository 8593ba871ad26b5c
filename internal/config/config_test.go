package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, setup func(v *viper.Viper)) (*Config, error) {
	t.Helper()
	v := viper.New()
	require.NoError(t, Bind(v))
	if setup != nil {
		setup(v)
	}
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.False(t, cfg.ReportSkipped)
	assert.Zero(t, cfg.MaxConcurrency)
	assert.Equal(t, time.Hour, cfg.Firebase.TokenTTL)
	assert.False(t, cfg.Analytics.Enabled())
	assert.Empty(t, cfg.Deployment.Fields())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("VERCEL_ENV", "production")
	t.Setenv("VERCEL_GIT_COMMIT_REF", "main")
	t.Setenv("VERCEL_GIT_COMMIT_SHA", "abc123")
	t.Setenv("GA_TRACKING_ID", "UA-1")
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", "localhost:9099")
	t.Setenv("CUSTOMTOKEN_ADDR", ":9000")
	t.Setenv("CUSTOMTOKEN_REPORT_SKIPPED", "true")
	t.Setenv("CUSTOMTOKEN_MAX_CONCURRENCY", "4")
	t.Setenv("CUSTOMTOKEN_FIREBASE_TOKEN_TTL", "30m")

	cfg, err := load(t, nil)
	require.NoError(t, err)

	assert.Equal(t, Deployment{Env: "production", Branch: "main", Commit: "abc123"}, cfg.Deployment)
	assert.Equal(t, map[string]string{"env": "production", "branch": "main", "commit": "abc123"}, cfg.Deployment.Fields())
	assert.True(t, cfg.Analytics.Enabled())
	assert.Equal(t, "localhost:9099", cfg.Firebase.EmulatorHost)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.True(t, cfg.ReportSkipped)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 30*time.Minute, cfg.Firebase.TokenTTL)
}

func TestLoad_PrefixedOverridesWellKnown(t *testing.T) {
	t.Setenv("VERCEL_ENV", "preview")
	t.Setenv("CUSTOMTOKEN_DEPLOYMENT_ENV", "staging")

	cfg, err := load(t, nil)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Deployment.Env)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customtoken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":7000"
analytics:
  tracking_id: UA-file
firebase:
  endpoint: http://localhost:1234
`), 0o600))

	cfg, err := load(t, func(v *viper.Viper) {
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "UA-file", cfg.Analytics.TrackingID)
	assert.Equal(t, "http://localhost:1234", cfg.Firebase.Endpoint)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Addr: ":8080"}},
		{name: "missing addr", cfg: Config{}, wantErr: "addr is required"},
		{name: "negative concurrency", cfg: Config{Addr: ":1", MaxConcurrency: -1}, wantErr: "max_concurrency"},
		{name: "negative ttl", cfg: Config{Addr: ":1", Firebase: FirebaseConfig{TokenTTL: -time.Second}}, wantErr: "token_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
