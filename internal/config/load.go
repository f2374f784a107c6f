package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursemarket/internal/platform/envutil"
)

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if dd, err := time.ParseDuration(s); err == nil {
		d.Duration = dd
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		API: APIConfig{
			BaseURL:   "http://localhost:8000/api",
			Timeout:   Duration{Duration: 10 * time.Second},
			UserAgent: "coursemarket-client",
		},
		Credentials: CredentialsConfig{
			Store:   CredentialStoreFile,
			Profile: "default",
		},
		ImageHost: ImageHostConfig{
			Provider:      ImageHostNone,
			ImgBBEndpoint: "https://api.imgbb.com/1",
		},
		Otel:           OtelConfig{SampleRatio: 0.1},
		SearchDebounce: Duration{Duration: 500 * time.Millisecond},
	}
}

// Load resolves configuration in order: defaults, YAML file, .env, process env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("COURSEMARKET_CONFIG"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "coursemarket.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		if err := loadFile(cfgPath, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.API.BaseURL = envutil.String("COURSEMARKET_API_URL", cfg.API.BaseURL)
	cfg.API.Timeout.Duration = envutil.Duration("COURSEMARKET_API_TIMEOUT", cfg.API.Timeout.Duration)

	cfg.Credentials.Store = CredentialStoreKind(envutil.String("CREDENTIAL_STORE", string(cfg.Credentials.Store)))
	cfg.Credentials.Profile = envutil.String("CREDENTIAL_PROFILE", cfg.Credentials.Profile)
	cfg.Credentials.FilePath = envutil.String("CREDENTIAL_FILE", cfg.Credentials.FilePath)
	cfg.Credentials.Passphrase = envutil.String("CREDENTIAL_PASSPHRASE", cfg.Credentials.Passphrase)
	cfg.Credentials.SQLitePath = envutil.String("CREDENTIAL_SQLITE_PATH", cfg.Credentials.SQLitePath)
	cfg.Credentials.PostgresDSN = envutil.String("CREDENTIAL_POSTGRES_DSN", cfg.Credentials.PostgresDSN)
	cfg.Credentials.RedisAddr = envutil.String("REDIS_ADDR", cfg.Credentials.RedisAddr)
	cfg.Credentials.RedisPassword = envutil.String("REDIS_PASSWORD", cfg.Credentials.RedisPassword)
	cfg.Credentials.RedisDB = envutil.Int("REDIS_DB", cfg.Credentials.RedisDB)

	cfg.ImageHost.Provider = ImageHostProvider(envutil.String("IMAGE_HOST", string(cfg.ImageHost.Provider)))
	cfg.ImageHost.ImgBBKey = envutil.String("IMGBB_API_KEY", cfg.ImageHost.ImgBBKey)
	cfg.ImageHost.GCSBucket = envutil.String("BANNER_GCS_BUCKET_NAME", cfg.ImageHost.GCSBucket)
	cfg.ImageHost.GCSCDNDomain = envutil.String("BANNER_CDN_DOMAIN", cfg.ImageHost.GCSCDNDomain)
	cfg.ImageHost.GCSPublicBaseURL = envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", cfg.ImageHost.GCSPublicBaseURL)
	cfg.ImageHost.GCSEmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", cfg.ImageHost.GCSEmulatorHost)
	cfg.ImageHost.GCSStorageModeName = envutil.String("OBJECT_STORAGE_MODE", cfg.ImageHost.GCSStorageModeName)
	cfg.ImageHost.GCSCredentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON",
		envutil.String("GOOGLE_APPLICATION_CREDENTIALS", cfg.ImageHost.GCSCredentials))

	cfg.Payment.StripeKey = envutil.String("STRIPE_PUBLISHABLE_KEY", cfg.Payment.StripeKey)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)

	cfg.SearchDebounce.Duration = envutil.Duration("COURSEMARKET_SEARCH_DEBOUNCE", cfg.SearchDebounce.Duration)
}

func normalize(cfg *Config) error {
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url=%q; expected absolute URL", cfg.API.BaseURL)
	}
	if cfg.API.Timeout.Duration <= 0 {
		cfg.API.Timeout.Duration = 10 * time.Second
	}

	cfg.Credentials.Store = CredentialStoreKind(strings.ToLower(strings.TrimSpace(string(cfg.Credentials.Store))))
	if strings.TrimSpace(cfg.Credentials.Profile) == "" {
		cfg.Credentials.Profile = "default"
	}
	switch cfg.Credentials.Store {
	case "":
		cfg.Credentials.Store = CredentialStoreFile
		fallthrough
	case CredentialStoreFile:
		if cfg.Credentials.FilePath == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				dir = "."
			}
			cfg.Credentials.FilePath = filepath.Join(dir, "coursemarket", "credentials.yaml")
		}
	case CredentialStoreMemory:
	case CredentialStoreSQLite:
		if cfg.Credentials.SQLitePath == "" {
			cfg.Credentials.SQLitePath = "coursemarket.db"
		}
	case CredentialStorePostgres:
		if cfg.Credentials.PostgresDSN == "" {
			return errors.New("credentials.store=postgres requires credentials.postgres_dsn")
		}
	case CredentialStoreRedis:
		if cfg.Credentials.RedisAddr == "" {
			return errors.New("credentials.store=redis requires credentials.redis_addr")
		}
		if cfg.Credentials.RedisPrefix == "" {
			cfg.Credentials.RedisPrefix = "coursemarket:credentials"
		}
	default:
		return fmt.Errorf("invalid credentials.store=%q", cfg.Credentials.Store)
	}

	cfg.ImageHost.Provider = ImageHostProvider(strings.ToLower(strings.TrimSpace(string(cfg.ImageHost.Provider))))
	switch cfg.ImageHost.Provider {
	case "", ImageHostNone:
		cfg.ImageHost.Provider = ImageHostNone
	case ImageHostImgBB:
		if cfg.ImageHost.ImgBBKey == "" {
			return errors.New("image_host.provider=imgbb requires image_host.imgbb_key")
		}
		if cfg.ImageHost.ImgBBEndpoint == "" {
			cfg.ImageHost.ImgBBEndpoint = "https://api.imgbb.com/1"
		}
	case ImageHostGCS:
		if cfg.ImageHost.GCSBucket == "" {
			return errors.New("image_host.provider=gcs requires image_host.gcs_bucket")
		}
	default:
		return fmt.Errorf("invalid image_host.provider=%q", cfg.ImageHost.Provider)
	}

	if cfg.Otel.SampleRatio < 0 {
		cfg.Otel.SampleRatio = 0
	}
	if cfg.Otel.SampleRatio > 1 {
		cfg.Otel.SampleRatio = 1
	}
	if cfg.SearchDebounce.Duration < 0 {
		return fmt.Errorf("invalid search_debounce=%s", cfg.SearchDebounce.Duration)
	}
	return nil
}
