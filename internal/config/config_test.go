package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SECRET_KEY", "testsecret123456789012345678901234")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("OAUTH_CLIENT_ID", "client")
	t.Setenv("OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "cdn")
	t.Setenv("CDN_API_KEY", "cdn-key")
}

func TestLoadConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("MONGODB_DATABASE", "INKBLOOM_TEST")
	t.Setenv("SITE_URL", "https://blog.example.com/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	require.Equal(t, "INKBLOOM_TEST", cfg.MongoDB.Database)
	require.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	require.Equal(t, "accounts", cfg.OAuth.Provider)
	require.Equal(t, "https://blog.example.com", cfg.Server.SiteURL)
	require.Equal(t, "https://blog.example.com/oauth-callback/accounts", cfg.OAuth.RedirectURL)
	require.Equal(t, "https://wsrv.nl/", cfg.Storage.ImageProxyURL)
	require.Equal(t, 10*time.Second, cfg.Server.HTTPClientTimeout)
	require.Equal(t, 7*24*time.Hour, cfg.Security.SessionTTL)
	require.Equal(t, 60*time.Second, cfg.RateLimit.StatsWindow)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("SECRET_KEY", "")
	t.Setenv("CDN_API_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)

	var missing *MissingEnvError
	require.True(t, errors.As(err, &missing))
	require.ElementsMatch(t, []string{"SECRET_KEY", "CDN_API_KEY"}, missing.Keys)
}

func TestLoadConfigMinIORequiresKeys(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "")
	t.Setenv("MINIO_SECRET_KEY", "")

	_, err := LoadConfig()
	var missing *MissingEnvError
	require.True(t, errors.As(err, &missing))
	require.ElementsMatch(t, []string{"MINIO_ACCESS_KEY", "MINIO_SECRET_KEY"}, missing.Keys)
}

func TestLoadConfigRejectsShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("SECRET_KEY", "short")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadMongoConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	_, err := LoadMongoConfig()
	require.Error(t, err)

	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	cfg, err := LoadMongoConfig()
	require.NoError(t, err)
	require.Equal(t, "mongodb://db:27017", cfg.URI)
}
