package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursemarket/internal/domain"
)

// FileStore keeps credentials for several profiles in one YAML file. With a
// passphrase each profile entry is sealed with secretbox under an scrypt key.
type FileStore struct {
	path       string
	profile    string
	passphrase []byte

	mu sync.Mutex
}

type fileDoc struct {
	Version  int                  `yaml:"version"`
	Profiles map[string]fileEntry `yaml:"profiles"`
}

type fileEntry struct {
	Salt   string `yaml:"salt,omitempty"`
	Nonce  string `yaml:"nonce,omitempty"`
	Sealed string `yaml:"sealed,omitempty"`

	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
}

var ErrBadPassphrase = errors.New("session: credentials file cannot be opened with this passphrase")

func NewFileStore(path, profile, passphrase string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session: file store path is required")
	}
	if profile == "" {
		profile = "default"
	}
	return &FileStore{path: path, profile: profile, passphrase: []byte(passphrase)}, nil
}

func (f *FileStore) Load(ctx context.Context) (domain.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return domain.Credentials{}, err
	}
	entry, ok := doc.Profiles[f.profile]
	if !ok {
		return domain.Credentials{}, nil
	}
	return f.open(entry)
}

func (f *FileStore) Save(ctx context.Context, creds domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	entry, err := f.seal(creds)
	if err != nil {
		return err
	}
	doc.Profiles[f.profile] = entry
	return f.write(doc)
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Profiles[f.profile]; !ok {
		return nil
	}
	delete(doc.Profiles, f.profile)
	return f.write(doc)
}

func (f *FileStore) read() (*fileDoc, error) {
	doc := &fileDoc{Version: 1, Profiles: map[string]fileEntry{}}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", f.path, err)
	}
	if err := yaml.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", f.path, err)
	}
	if doc.Profiles == nil {
		doc.Profiles = map[string]fileEntry{}
	}
	return doc, nil
}

func (f *FileStore) write(doc *fileDoc) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) seal(creds domain.Credentials) (fileEntry, error) {
	if len(f.passphrase) == 0 {
		return fileEntry{AccessToken: creds.AccessToken, RefreshToken: creds.RefreshToken}, nil
	}
	plain, err := yaml.Marshal(creds)
	if err != nil {
		return fileEntry{}, err
	}
	var salt [16]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return fileEntry{}, err
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fileEntry{}, err
	}
	key, err := deriveKey(f.passphrase, salt[:])
	if err != nil {
		return fileEntry{}, err
	}
	sealed := secretbox.Seal(nil, plain, &nonce, key)
	enc := base64.StdEncoding
	return fileEntry{
		Salt:   enc.EncodeToString(salt[:]),
		Nonce:  enc.EncodeToString(nonce[:]),
		Sealed: enc.EncodeToString(sealed),
	}, nil
}

func (f *FileStore) open(e fileEntry) (domain.Credentials, error) {
	if e.Sealed == "" {
		return domain.Credentials{AccessToken: e.AccessToken, RefreshToken: e.RefreshToken}, nil
	}
	if len(f.passphrase) == 0 {
		return domain.Credentials{}, ErrBadPassphrase
	}
	enc := base64.StdEncoding
	salt, err := enc.DecodeString(e.Salt)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("decode salt: %w", err)
	}
	nonceRaw, err := enc.DecodeString(e.Nonce)
	if err != nil || len(nonceRaw) != 24 {
		return domain.Credentials{}, fmt.Errorf("decode nonce: invalid")
	}
	sealed, err := enc.DecodeString(e.Sealed)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("decode sealed: %w", err)
	}
	key, err := deriveKey(f.passphrase, salt)
	if err != nil {
		return domain.Credentials{}, err
	}
	var nonce [24]byte
	copy(nonce[:], nonceRaw)
	plain, ok := secretbox.Open(nil, sealed, &nonce, key)
	if !ok {
		return domain.Credentials{}, ErrBadPassphrase
	}
	var creds domain.Credentials
	if err := yaml.Unmarshal(plain, &creds); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

func deriveKey(pass, salt []byte) (*[32]byte, error) {
	k, err := scrypt.Key(pass, salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [32]byte
	copy(key[:], k)
	return &key, nil
}
