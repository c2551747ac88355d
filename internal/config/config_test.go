package config

import (
	"reflect"
	"testing"

	"github.com/kozaktomas/image-to-pdf/internal/layout"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"COMPRESS_MAX_BYTES", "COMPRESS_MAX_DIMENSION", "COMPRESS_QUALITY",
		"DOCUMENT_NAME", "DOCUMENT_PAGE_SIZE", "WEB_HOST", "WEB_PORT",
		"WEB_SESSION_SECRET", "WEB_SESSION_TTL_MINUTES", "WEB_RATE_LIMIT", "WEB_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Compression.MaxBytes != 1<<20 {
		t.Errorf("expected 1MB budget, got %d", cfg.Compression.MaxBytes)
	}
	if cfg.Compression.MaxDimension != 1920 {
		t.Errorf("expected 1920 max dimension, got %d", cfg.Compression.MaxDimension)
	}
	if cfg.Document.Name != "converted-images.pdf" {
		t.Errorf("expected default name, got %q", cfg.Document.Name)
	}
	if cfg.Document.Page != "a4" {
		t.Errorf("expected a4, got %q", cfg.Document.Page)
	}
	if cfg.Web.Host != "127.0.0.1" || cfg.Web.Port != 8085 {
		t.Errorf("unexpected listen address %s:%d", cfg.Web.Host, cfg.Web.Port)
	}
	if cfg.Web.SessionTTL != 120 {
		t.Errorf("expected 120 minute ttl, got %d", cfg.Web.SessionTTL)
	}
	if len(cfg.Web.AllowedOrigins) != 0 {
		t.Errorf("expected no extra origins, got %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("COMPRESS_MAX_BYTES", "500000")
	t.Setenv("COMPRESS_MAX_DIMENSION", "1024")
	t.Setenv("DOCUMENT_NAME", "scans.pdf")
	t.Setenv("DOCUMENT_PAGE_SIZE", "letter")
	t.Setenv("WEB_PORT", "9000")
	t.Setenv("WEB_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()

	if cfg.Compression.MaxBytes != 500000 || cfg.Compression.MaxDimension != 1024 {
		t.Errorf("unexpected compression config %+v", cfg.Compression)
	}
	if cfg.Document.Name != "scans.pdf" || cfg.Document.Page != "letter" {
		t.Errorf("unexpected document config %+v", cfg.Document)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Web.Port)
	}
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(cfg.Web.AllowedOrigins, want) {
		t.Errorf("expected origins %v, got %v", want, cfg.Web.AllowedOrigins)
	}
}

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"unset", "", 7},
		{"valid", "12", 12},
		{"zero", "0", 7},
		{"negative", "-3", 7},
		{"garbage", "abc", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_INT", tt.value)
			if got := envInt("TEST_ENV_INT", 7); got != tt.expected {
				t.Errorf("envInt() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestPageSize(t *testing.T) {
	cfg := Load()

	tests := []struct {
		name     string
		expected layout.PageSize
		wantErr  bool
	}{
		{"a4", layout.A4, false},
		{"A4", layout.A4, false},
		{"a4-landscape", layout.PageSize{Name: "a4", Width: 841.89, Height: 595.28}, false},
		{"letter", layout.PageSize{Name: "letter", Width: 612, Height: 792}, false},
		{"legal-landscape", layout.PageSize{Name: "legal", Width: 1008, Height: 612}, false},
		{"b5", layout.PageSize{}, true},
		{"", layout.PageSize{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.PageSize(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("PageSize(%q) failed: %v", tt.name, err)
			}
			if got != tt.expected {
				t.Errorf("PageSize(%q) = %+v, want %+v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestDefaultPage_FallsBackToA4(t *testing.T) {
	cfg := Load()
	cfg.Document.Page = "unknown"

	if got := cfg.DefaultPage(); got != layout.A4 {
		t.Errorf("expected A4 fallback, got %+v", got)
	}
}

func TestPageNames(t *testing.T) {
	cfg := Load()
	want := []string{"a3", "a4", "a5", "legal", "letter"}
	if got := cfg.PageNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("PageNames() = %v, want %v", got, want)
	}
}
