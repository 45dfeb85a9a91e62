package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Security   SecurityConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	OAuth      OAuthConfig
	Storage    StorageConfig
	Moderation ModerationConfig
	Mail       MailConfig
	RateLimit  RateLimitConfig
	LogLevel   string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	SiteURL      string
	TemplatesDir string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// HTTPClientTimeout bounds every outbound call (uploads, OAuth, classifier).
	HTTPClientTimeout time.Duration
}

type SecurityConfig struct {
	SecretKey    string
	CookieSecure bool
	SessionTTL   time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	URL string
}

type OAuthConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	UserInfoURL  string
	IssuerURL    string
	RedirectURL  string
	// AllowInsecureIDToken skips ID-token signature checks for local OIDC setups.
	AllowInsecureIDToken bool
}

type StorageConfig struct {
	Backend        string
	CDNUploadURL   string
	CDNAPIKey      string
	ImageProxyURL  string
	CoverMaxWidth  int
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string
}

type ModerationConfig struct {
	ProfanityURL string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	// Window is the fixed window of the Redis-backed global limiter.
	Window time.Duration
	// Per-route fixed windows for the statistics endpoints.
	ViewsLimit  int
	LikesLimit  int
	StatsWindow time.Duration
}

// MissingEnvError lists required variables that were not set.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("required environment variables not set: %s", strings.Join(e.Keys, ", "))
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SITE_URL", "http://localhost:5000")
	viper.SetDefault("HTTP_CLIENT_TIMEOUT", 10)
	viper.SetDefault("SESSION_TTL_HOURS", 168)
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("MONGODB_DATABASE", "INKBLOOM")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("OAUTH_PROVIDER", "accounts")
	viper.SetDefault("OAUTH_AUTHORIZE_URL", "https://accounts.om-mishra.com/api/v1/oauth2/authorize")
	viper.SetDefault("OAUTH_USERINFO_URL", "https://accounts.om-mishra.com/api/v1/oauth2/user-info")
	viper.SetDefault("STORAGE_BACKEND", "cdn")
	viper.SetDefault("CDN_UPLOAD_URL", "https://cdn.projectrexa.dedyn.io/upload")
	viper.SetDefault("IMAGE_PROXY_URL", "https://wsrv.nl/")
	viper.SetDefault("COVER_MAX_WIDTH", 1600)
	viper.SetDefault("MINIO_BUCKET", "inkbloom")
	viper.SetDefault("PROFANITY_API_URL", "https://vector.profanity.dev")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_SENDER", "InkBloom <no-reply@inkbloom.local>")
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW", 1)
	viper.SetDefault("RATE_LIMIT_VIEWS", 1)
	viper.SetDefault("RATE_LIMIT_LIKES", 1)
	viper.SetDefault("RATE_LIMIT_STATS_WINDOW", 60)
	viper.SetDefault("LOG_LEVEL", "info")
}

// LoadConfig loads configuration from environment variables and .env file.
// A *MissingEnvError is returned when required variables are absent.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	setDefaults()

	var missing []string
	require := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              viper.GetString("SERVER_PORT"),
			Host:              viper.GetString("SERVER_HOST"),
			Environment:       viper.GetString("SERVER_ENVIRONMENT"),
			SiteURL:           strings.TrimRight(viper.GetString("SITE_URL"), "/"),
			TemplatesDir:      viper.GetString("TEMPLATES_DIR"),
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			HTTPClientTimeout: time.Duration(viper.GetInt("HTTP_CLIENT_TIMEOUT")) * time.Second,
		},
		Security: SecurityConfig{
			SecretKey:    require("SECRET_KEY"),
			CookieSecure: viper.GetBool("COOKIE_SECURE"),
			SessionTTL:   time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour,
		},
		MongoDB: MongoDBConfig{
			URI:      require("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			URL: require("REDIS_URL"),
		},
		OAuth: OAuthConfig{
			Provider:             strings.ToLower(viper.GetString("OAUTH_PROVIDER")),
			ClientID:             require("OAUTH_CLIENT_ID"),
			ClientSecret:         require("OAUTH_CLIENT_SECRET"),
			AuthorizeURL:         viper.GetString("OAUTH_AUTHORIZE_URL"),
			UserInfoURL:          viper.GetString("OAUTH_USERINFO_URL"),
			IssuerURL:            viper.GetString("OAUTH_ISSUER_URL"),
			RedirectURL:          viper.GetString("OAUTH_REDIRECT_URL"),
			AllowInsecureIDToken: viper.GetBool("OAUTH_ALLOW_INSECURE_ID_TOKEN"),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(viper.GetString("STORAGE_BACKEND")),
			CDNUploadURL:   viper.GetString("CDN_UPLOAD_URL"),
			ImageProxyURL:  viper.GetString("IMAGE_PROXY_URL"),
			CoverMaxWidth:  viper.GetInt("COVER_MAX_WIDTH"),
			MinIOEndpoint:  viper.GetString("MINIO_ENDPOINT"),
			MinIOBucket:    viper.GetString("MINIO_BUCKET"),
			MinIOUseSSL:    viper.GetBool("MINIO_USE_SSL"),
			MinIOPublicURL: strings.TrimRight(viper.GetString("MINIO_PUBLIC_URL"), "/"),
		},
		Moderation: ModerationConfig{
			ProfanityURL: viper.GetString("PROFANITY_API_URL"),
		},
		Mail: MailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   viper.GetString("SMTP_SENDER"),
		},
		RateLimit: RateLimitConfig{
			Enabled:     viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:         viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:       viper.GetInt("RATE_LIMIT_BURST"),
			Window:      time.Duration(viper.GetInt("RATE_LIMIT_WINDOW")) * time.Second,
			ViewsLimit:  viper.GetInt("RATE_LIMIT_VIEWS"),
			LikesLimit:  viper.GetInt("RATE_LIMIT_LIKES"),
			StatsWindow: time.Duration(viper.GetInt("RATE_LIMIT_STATS_WINDOW")) * time.Second,
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// the upload credential depends on the selected backend
	switch cfg.Storage.Backend {
	case "minio":
		cfg.Storage.MinIOAccessKey = require("MINIO_ACCESS_KEY")
		cfg.Storage.MinIOSecretKey = require("MINIO_SECRET_KEY")
		if cfg.Storage.MinIOEndpoint == "" {
			missing = append(missing, "MINIO_ENDPOINT")
		}
	case "cdn":
		cfg.Storage.CDNAPIKey = require("CDN_API_KEY")
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q (want cdn or minio)", cfg.Storage.Backend)
	}

	if cfg.OAuth.Provider == "oidc" && cfg.OAuth.IssuerURL == "" {
		missing = append(missing, "OAUTH_ISSUER_URL")
	}

	if len(missing) > 0 {
		return nil, &MissingEnvError{Keys: missing}
	}

	if len(cfg.Security.SecretKey) < 32 {
		return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters")
	}
	if cfg.Server.SiteURL == "" {
		return nil, fmt.Errorf("SITE_URL must not be empty")
	}
	if cfg.OAuth.RedirectURL == "" {
		cfg.OAuth.RedirectURL = cfg.Server.SiteURL + "/oauth-callback/" + cfg.OAuth.Provider
	}

	return cfg, nil
}

// LoadMongoConfig reads only the database settings. Used by the admin CLI.
func LoadMongoConfig() (MongoDBConfig, error) {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	setDefaults()

	uri := strings.TrimSpace(os.Getenv("MONGODB_URI"))
	if uri == "" {
		return MongoDBConfig{}, &MissingEnvError{Keys: []string{"MONGODB_URI"}}
	}
	return MongoDBConfig{
		URI:      uri,
		Database: viper.GetString("MONGODB_DATABASE"),
		Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
	}, nil
}
