package gcp

import (
	"errors"
	"testing"
)

func TestResolveStorageConfig(t *testing.T) {
	cases := []struct {
		name         string
		mode, host   string
		wantMode     StorageMode
		wantInferred bool
		wantCode     ConfigErrorCode
	}{
		{name: "default gcs", wantMode: StorageModeGCS},
		{name: "explicit gcs ignores host", mode: "gcs", host: "http://fake-gcs:4443", wantMode: StorageModeGCS},
		{name: "explicit emulator", mode: "GCS_EMULATOR", host: "http://fake-gcs:4443", wantMode: StorageModeEmulator},
		{name: "inferred emulator", host: "http://fake-gcs:4443", wantMode: StorageModeEmulator, wantInferred: true},
		{name: "invalid mode", mode: "local", wantCode: ConfigErrorInvalidMode},
		{name: "missing host", mode: "gcs_emulator", wantCode: ConfigErrorMissingEmulatorHost},
		{name: "relative host", mode: "gcs_emulator", host: "fake-gcs:4443", wantCode: ConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ResolveStorageConfig(tc.mode, tc.host)
			if tc.wantCode != "" {
				var ce *ConfigError
				if !errors.As(err, &ce) || ce.Code != tc.wantCode {
					t.Fatalf("err=%v want code %s", err, tc.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveStorageConfig: %v", err)
			}
			if cfg.Mode != tc.wantMode || cfg.Inferred != tc.wantInferred {
				t.Fatalf("got %+v", cfg)
			}
		})
	}
}
