// Package imagehost publishes avatar and banner images and returns the public
// link the API stores instead of the file itself.
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

var ErrEmptyFile = errors.New("empty image")

// ImgBB uploads through the ImgBB v1 API (multipart field "image").
type ImgBB struct {
	c   *client.Client
	key string
	log *logger.Logger
}

type ImgBBOptions struct {
	// Endpoint defaults to https://api.imgbb.com/1.
	Endpoint string
	Key      string
	Client   client.Options
}

func NewImgBB(opts ImgBBOptions) (*ImgBB, error) {
	if strings.TrimSpace(opts.Key) == "" {
		return nil, errors.New("imgbb key required")
	}
	co := opts.Client
	co.BaseURL = opts.Endpoint
	if strings.TrimSpace(co.BaseURL) == "" {
		co.BaseURL = "https://api.imgbb.com/1"
	}
	// uploads never carry the marketplace session
	co.Session = nil
	c, err := client.New(co)
	if err != nil {
		return nil, fmt.Errorf("imgbb client: %w", err)
	}
	log := co.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &ImgBB{c: c, key: opts.Key, log: log.With("component", "ImgBB")}, nil
}

func (h *ImgBB) Upload(ctx context.Context, f domain.File) (string, error) {
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}
	mp := client.NewMultipart().File("image", fileName(f), f.ContentType, f.Data)
	var out struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	err := h.c.Do(ctx, client.Request{
		Method: "POST",
		Path:   "upload",
		Query:  url.Values{"key": {h.key}},
		Body:   mp,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("imgbb upload: %w", err)
	}
	if out.Data.URL == "" {
		return "", errors.New("imgbb upload: response carried no url")
	}
	h.log.Debug("image uploaded", "name", f.Name)
	return out.Data.URL, nil
}

// ObjectStore is the part of gcp.Bucket the GCS uploader needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	PublicURL(key string) string
}

// GCS stores images under Prefix with a random name and keeps the extension.
type GCS struct {
	store  ObjectStore
	prefix string
	newID  func() string
}

func NewGCS(store ObjectStore, prefix string) *GCS {
	return &GCS{store: store, prefix: strings.Trim(prefix, "/"), newID: uuid.NewString}
}

func (g *GCS) Upload(ctx context.Context, f domain.File) (string, error) {
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}
	key := g.newID() + strings.ToLower(path.Ext(fileName(f)))
	if g.prefix != "" {
		key = g.prefix + "/" + key
	}
	if err := g.store.Upload(ctx, key, bytes.NewReader(f.Data)); err != nil {
		return "", fmt.Errorf("gcs upload: %w", err)
	}
	return g.store.PublicURL(key), nil
}

func fileName(f domain.File) string {
	if n := strings.TrimSpace(f.Name); n != "" {
		return path.Base(n)
	}
	return "image"
}
