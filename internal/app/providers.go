package app

import (
	"context"
	"fmt"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/clients/redis"
	"github.com/yungbote/coursemarket/internal/config"
	"github.com/yungbote/coursemarket/internal/data/db"
	"github.com/yungbote/coursemarket/internal/platform/gcp"
	"github.com/yungbote/coursemarket/internal/platform/imagehost"
	"github.com/yungbote/coursemarket/internal/platform/stripeintent"
	"github.com/yungbote/coursemarket/internal/session"
	"github.com/yungbote/coursemarket/internal/state"
)

func (a *App) openCredentialStore(ctx context.Context) (session.Store, error) {
	cc := a.Cfg.Credentials
	switch cc.Store {
	case config.CredentialStoreMemory:
		return session.NewMemoryStore(), nil
	case config.CredentialStoreFile:
		return session.NewFileStore(cc.FilePath, cc.Profile, cc.Passphrase)
	case config.CredentialStoreSQLite, config.CredentialStorePostgres:
		var (
			svc *db.Service
			err error
		)
		if cc.Store == config.CredentialStoreSQLite {
			svc, err = db.NewSQLiteService(cc.SQLitePath, a.Log)
		} else {
			svc, err = db.NewPostgresService(cc.PostgresDSN, a.Log)
		}
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, svc)
		return db.NewCredentialStore(svc, cc.Profile), nil
	case config.CredentialStoreRedis:
		rs, err := redis.NewCredentialStore(a.Log, redis.Options{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
			Prefix:   cc.RedisPrefix,
			Profile:  cc.Profile,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs)
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", cc.Store)
	}
}

// newUploader returns nil when no image host is configured; files are then
// sent inline with the multipart request.
func (a *App) newUploader(ctx context.Context) (state.Uploader, error) {
	ih := a.Cfg.ImageHost
	switch ih.Provider {
	case config.ImageHostImgBB:
		return imagehost.NewImgBB(imagehost.ImgBBOptions{
			Endpoint: ih.ImgBBEndpoint,
			Key:      ih.ImgBBKey,
			Client:   client.Options{Timeout: a.Cfg.API.Timeout.Duration, Logger: a.Log, UserAgent: a.Cfg.API.UserAgent},
		})
	case config.ImageHostGCS:
		sc, err := gcp.ResolveStorageConfig(ih.GCSStorageModeName, ih.GCSEmulatorHost)
		if err != nil {
			return nil, err
		}
		bucket, err := gcp.NewBucket(ctx, a.Log, gcp.BucketOptions{
			Name:          ih.GCSBucket,
			CDNDomain:     ih.GCSCDNDomain,
			PublicBaseURL: ih.GCSPublicBaseURL,
			Credentials:   ih.GCSCredentials,
			Storage:       sc,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, bucket)
		return imagehost.NewGCS(bucket, "course_media"), nil
	default:
		return nil, nil
	}
}

// newVerifier returns nil without a Stripe key; checkout completion then
// reports the processor as not configured.
func (a *App) newVerifier() (state.IntentVerifier, error) {
	if a.Cfg.Payment.StripeKey == "" {
		return nil, nil
	}
	return stripeintent.New(stripeintent.Options{Key: a.Cfg.Payment.StripeKey, Logger: a.Log})
}
