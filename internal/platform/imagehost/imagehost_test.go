package imagehost

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
)

func TestImgBBUpload(t *testing.T) {
	var gotKey, gotName string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			http.NotFound(w, r)
			return
		}
		gotKey = r.URL.Query().Get("key")
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected auth header")
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		gotName = hdr.Filename
		gotBody, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"url":"https://i.ibb.co/x/banner.png"},"success":true,"status":200}`)
	}))
	defer srv.Close()

	h, err := NewImgBB(ImgBBOptions{Endpoint: srv.URL, Key: "k123"})
	if err != nil {
		t.Fatalf("NewImgBB: %v", err)
	}
	u, err := h.Upload(context.Background(), domain.File{Name: "dir/banner.png", ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if u != "https://i.ibb.co/x/banner.png" {
		t.Fatalf("url=%q", u)
	}
	if gotKey != "k123" || gotName != "banner.png" || string(gotBody) != "png" {
		t.Fatalf("key=%q name=%q body=%q", gotKey, gotName, gotBody)
	}
}

func TestImgBBErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status_code":400,"error":{"message":"Invalid API v1 key."}}`)
	}))
	defer srv.Close()

	if _, err := NewImgBB(ImgBBOptions{Endpoint: srv.URL}); err == nil {
		t.Fatalf("expected missing key error")
	}
	h, err := NewImgBB(ImgBBOptions{Endpoint: srv.URL, Key: "bad"})
	if err != nil {
		t.Fatalf("NewImgBB: %v", err)
	}
	if _, err := h.Upload(context.Background(), domain.File{Name: "a.png"}); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("err=%v want ErrEmptyFile", err)
	}
	_, err = h.Upload(context.Background(), domain.File{Name: "a.png", Data: []byte("x")})
	e, ok := apierr.As(err)
	if !ok || e.Status != http.StatusBadRequest {
		t.Fatalf("err=%v want http 400", err)
	}
}

type memStore struct {
	objects map[string]string
	fail    error
}

func (m *memStore) Upload(_ context.Context, key string, r io.Reader) error {
	if m.fail != nil {
		return m.fail
	}
	b, _ := io.ReadAll(r)
	m.objects[key] = string(b)
	return nil
}

func (m *memStore) PublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestGCSUpload(t *testing.T) {
	store := &memStore{objects: map[string]string{}}
	g := NewGCS(store, "/course_banner/")
	g.newID = func() string { return "fixed" }

	u, err := g.Upload(context.Background(), domain.File{Name: "Banner.PNG", Data: []byte("img")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if u != "https://cdn.example.com/course_banner/fixed.png" {
		t.Fatalf("url=%q", u)
	}
	if store.objects["course_banner/fixed.png"] != "img" {
		t.Fatalf("objects=%v", store.objects)
	}

	store.fail = errors.New("quota")
	if _, err := g.Upload(context.Background(), domain.File{Name: "b.png", Data: []byte("x")}); err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("err=%v", err)
	}
}
