package config

import "time"

type Duration struct {
	Duration time.Duration
}

type APIConfig struct {
	// BaseURL is the REST root, e.g. https://api.example.com/api.
	BaseURL   string   `yaml:"base_url"`
	Timeout   Duration `yaml:"timeout"`
	UserAgent string   `yaml:"user_agent,omitempty"`
}

type CredentialStoreKind string

const (
	CredentialStoreMemory   CredentialStoreKind = "memory"
	CredentialStoreFile     CredentialStoreKind = "file"
	CredentialStoreSQLite   CredentialStoreKind = "sqlite"
	CredentialStorePostgres CredentialStoreKind = "postgres"
	CredentialStoreRedis    CredentialStoreKind = "redis"
)

type CredentialsConfig struct {
	Store CredentialStoreKind `yaml:"store"`
	// Profile namespaces stored credentials so several accounts can share one backend.
	Profile string `yaml:"profile"`

	FilePath   string `yaml:"file_path,omitempty"`
	Passphrase string `yaml:"passphrase,omitempty"`

	SQLitePath  string `yaml:"sqlite_path,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`

	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`
	RedisPrefix   string `yaml:"redis_prefix,omitempty"`
}

type ImageHostProvider string

const (
	ImageHostNone  ImageHostProvider = "none"
	ImageHostImgBB ImageHostProvider = "imgbb"
	ImageHostGCS   ImageHostProvider = "gcs"
)

type ImageHostConfig struct {
	Provider ImageHostProvider `yaml:"provider"`

	ImgBBKey      string `yaml:"imgbb_key,omitempty"`
	ImgBBEndpoint string `yaml:"imgbb_endpoint,omitempty"`

	GCSBucket          string `yaml:"gcs_bucket,omitempty"`
	GCSCDNDomain       string `yaml:"gcs_cdn_domain,omitempty"`
	GCSPublicBaseURL   string `yaml:"gcs_public_base_url,omitempty"`
	GCSEmulatorHost    string `yaml:"gcs_emulator_host,omitempty"`
	GCSCredentials     string `yaml:"gcs_credentials,omitempty"`
	GCSStorageModeName string `yaml:"gcs_storage_mode,omitempty"`
}

type PaymentConfig struct {
	// StripeKey is the publishable key used to read back PaymentIntents by client secret.
	StripeKey string `yaml:"stripe_key,omitempty"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	Insecure    bool    `yaml:"insecure,omitempty"`
	Headers     string  `yaml:"headers,omitempty"`
	SampleRatio float64 `yaml:"sample_ratio,omitempty"`
}

type Config struct {
	Env            string            `yaml:"env"`
	API            APIConfig         `yaml:"api"`
	Credentials    CredentialsConfig `yaml:"credentials"`
	ImageHost      ImageHostConfig   `yaml:"image_host"`
	Payment        PaymentConfig     `yaml:"payment"`
	Otel           OtelConfig        `yaml:"otel"`
	SearchDebounce Duration          `yaml:"search_debounce"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}
