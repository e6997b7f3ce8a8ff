package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "/api", cfg.APIPrefix)
	require.Equal(t, "http://localhost:4200/api", cfg.Upstream.BaseURL)
	require.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	require.Equal(t, 2*time.Hour, cfg.Workspace.IdleTTL)
	require.True(t, cfg.Cache.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("UPSTREAM_BASE_URL", "https://pipeline.internal/api/")
	t.Setenv("PENDING_CACHE_TTL", "bogus")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("WORKSPACE_IDLE_TTL", "45m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://pipeline.internal/api", cfg.Upstream.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Cache.PendingTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 45*time.Minute, cfg.Workspace.IdleTTL)
}

func TestLoadRejectsRelativeUpstream(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("UPSTREAM_BASE_URL", "pipeline/api")

	_, err := Load()
	require.ErrorContains(t, err, "UPSTREAM_BASE_URL")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:       EnvDevelopment,
			Upstream:  UpstreamConfig{BaseURL: "http://backend:4200/api", Timeout: time.Second},
			JWT:       JWTConfig{Secret: devSecret},
			Workspace: WorkspaceConfig{IdleTTL: time.Hour, SweepInterval: time.Minute},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 1, cfg.Submissions.WorkerConcurrency)

	cfg = base()
	cfg.Env = EnvProduction
	require.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
	cfg.JWT.Secret = "s3cret"
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Upstream.Timeout = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Workspace.SweepInterval = 0
	require.Error(t, cfg.Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
