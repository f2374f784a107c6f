package gcp

import "testing"

func TestResolvePublicBaseURL(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		cfg        StorageConfig
		wantBase   string
		wantSource string
		wantErr    bool
	}{
		{name: "gcs default", cfg: StorageConfig{Mode: StorageModeGCS}, wantSource: "gcs_default"},
		{
			name:       "emulator fallback",
			cfg:        StorageConfig{Mode: StorageModeEmulator, EmulatorHost: "http://fake-gcs:4443"},
			wantBase:   "http://fake-gcs:4443",
			wantSource: "emulator_host",
		},
		{
			name:       "explicit override",
			raw:        "http://localhost:4443/",
			cfg:        StorageConfig{Mode: StorageModeEmulator, EmulatorHost: "http://fake-gcs:4443"},
			wantBase:   "http://localhost:4443",
			wantSource: "public_base_url",
		},
		{name: "relative override", raw: "localhost:4443", cfg: StorageConfig{Mode: StorageModeGCS}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base, source, err := resolvePublicBaseURL(tc.raw, tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolvePublicBaseURL: %v", err)
			}
			if base != tc.wantBase || source != tc.wantSource {
				t.Fatalf("got base=%q source=%q want base=%q source=%q", base, source, tc.wantBase, tc.wantSource)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name   string
		bucket *Bucket
		key    string
		want   string
	}{
		{
			name:   "gcs default",
			bucket: &Bucket{name: "banners"},
			key:    "course_banner/9.png",
			want:   "https://storage.googleapis.com/banners/course_banner/9.png",
		},
		{
			name:   "cdn domain",
			bucket: &Bucket{name: "banners", cdnDomain: "cdn.example.com"},
			key:    "/course_banner/9.png",
			want:   "https://cdn.example.com/course_banner/9.png",
		},
		{
			name:   "public base",
			bucket: &Bucket{name: "banners", publicBaseURL: "http://localhost:4443"},
			key:    "/course_banner/9.png",
			want:   "http://localhost:4443/banners/course_banner/9.png",
		},
		{
			name:   "emulator media link",
			bucket: &Bucket{name: "banners", mode: StorageModeEmulator, publicBaseURL: "http://localhost:4443"},
			key:    "avatar/2/me.png",
			want:   "http://localhost:4443/storage/v1/b/banners/o/avatar%2F2%2Fme.png?alt=media",
		},
		{
			name:   "emulator host when no public base",
			bucket: &Bucket{name: "banners", mode: StorageModeEmulator, emulatorHost: "http://fake-gcs:4443"},
			key:    "/avatar/2/me.png",
			want:   "http://fake-gcs:4443/storage/v1/b/banners/o/avatar%2F2%2Fme.png?alt=media",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bucket.PublicURL(tc.key); got != tc.want {
				t.Fatalf("PublicURL: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	for key, want := range map[string]string{
		"a/b.PNG":        "image/png",
		"x.jpeg":         "image/jpeg",
		"x.webp?v=2":     "image/webp",
		"notes.pdf":      "application/pdf",
		"archive.tar.gz": "",
	} {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
