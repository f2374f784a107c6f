package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/coursemarket/internal/platform/logger"
)

type BucketOptions struct {
	Name      string
	CDNDomain string
	// PublicBaseURL overrides the host used in public links, e.g. http://localhost:4443.
	PublicBaseURL string
	Credentials   string
	Storage       StorageConfig
}

// Bucket writes public objects (course banners, avatars) into one GCS bucket.
type Bucket struct {
	log           *logger.Logger
	client        *storage.Client
	name          string
	cdnDomain     string
	publicBaseURL string
	mode          StorageMode
	emulatorHost  string
}

func NewBucket(ctx context.Context, log *logger.Logger, opts BucketOptions) (*Bucket, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, errors.New("bucket name required")
	}
	if err := opts.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	publicBase, source, err := resolvePublicBaseURL(opts.PublicBaseURL, opts.Storage)
	if err != nil {
		return nil, err
	}
	client, err := newStorageClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	b := &Bucket{
		log:           log.With("component", "Bucket"),
		client:        client,
		name:          opts.Name,
		cdnDomain:     strings.TrimSpace(opts.CDNDomain),
		publicBaseURL: publicBase,
		mode:          opts.Storage.Mode,
		emulatorHost:  strings.TrimRight(opts.Storage.EmulatorHost, "/"),
	}
	b.log.Info("object storage initialized",
		"mode", opts.Storage.Mode,
		"inferred", opts.Storage.Inferred,
		"bucket", opts.Name,
		"public_base_source", source,
	)
	return b, nil
}

func newStorageClient(ctx context.Context, opts BucketOptions) (*storage.Client, error) {
	switch opts.Storage.Mode {
	case StorageModeGCS:
		co := append(ClientOptions(opts.Credentials), option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, co...)
	case StorageModeEmulator:
		// the storage client reads the emulator endpoint from the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(opts.Storage.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(opts.Storage.Mode)}
	}
}

func resolvePublicBaseURL(raw string, cfg StorageConfig) (baseURL, source string, err error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		u, perr := url.Parse(raw)
		if perr != nil || u.Scheme == "" || u.Host == "" {
			return "", "", fmt.Errorf("invalid public base url %q; expected absolute URL like http://localhost:4443", raw)
		}
		return strings.TrimRight(raw, "/"), "public_base_url", nil
	}
	if cfg.IsEmulator() {
		return strings.TrimRight(cfg.EmulatorHost, "/"), "emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (b *Bucket) Upload(ctx context.Context, key string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	if ct := ContentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %q: %w", key, err)
	}
	b.log.Debug("object uploaded", "bucket", b.name, "key", key)
	return nil
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := b.client.Bucket(b.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %q in bucket %q: %w", key, b.name, err)
	}
	return nil
}

// PublicURL prefers the CDN domain, then the emulator media link, then the
// configured base, then storage.googleapis.com.
func (b *Bucket) PublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, key)
	}
	if b.mode == StorageModeEmulator {
		base := b.publicBaseURL
		if base == "" {
			base = b.emulatorHost
		}
		if base != "" {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(b.name), url.PathEscape(key))
		}
	}
	if b.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", b.publicBaseURL, b.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key)
}

func (b *Bucket) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	default:
		return ""
	}
}
