package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/coursemarket/internal/domain"
)

// StoredCredential is one profile's persisted token pair.
type StoredCredential struct {
	Profile      string    `gorm:"primaryKey;size:128" json:"profile"`
	AccessToken  string    `gorm:"type:text;not null" json:"access_token"`
	RefreshToken string    `gorm:"type:text" json:"refresh_token"`
	UpdatedAt    time.Time `gorm:"not null;index" json:"updated_at"`
}

func (StoredCredential) TableName() string { return "stored_credentials" }

// CredentialStore implements session.Store over a gorm database.
type CredentialStore struct {
	db      *gorm.DB
	profile string
}

func NewCredentialStore(s *Service, profile string) *CredentialStore {
	if profile == "" {
		profile = "default"
	}
	return &CredentialStore{db: s.DB(), profile: profile}
}

func (c *CredentialStore) Load(ctx context.Context) (domain.Credentials, error) {
	var row StoredCredential
	err := c.db.WithContext(ctx).Where("profile = ?", c.profile).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Credentials{}, nil
	}
	if err != nil {
		return domain.Credentials{}, err
	}
	return domain.Credentials{AccessToken: row.AccessToken, RefreshToken: row.RefreshToken}, nil
}

func (c *CredentialStore) Save(ctx context.Context, creds domain.Credentials) error {
	row := StoredCredential{
		Profile:      c.profile,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		UpdatedAt:    time.Now().UTC(),
	}
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "updated_at"}),
		}).
		Create(&row).Error
}

func (c *CredentialStore) Clear(ctx context.Context) error {
	return c.db.WithContext(ctx).Where("profile = ?", c.profile).Delete(&StoredCredential{}).Error
}
