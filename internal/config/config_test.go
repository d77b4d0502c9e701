package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.CallMarker != "fetch" {
		t.Errorf("expected fetch marker, got %q", cfg.CallMarker)
	}

	if !cfg.IgnoreField("timestamp") {
		t.Error("timestamp should be ignored by default")
	}
	if !cfg.IgnoreField("Timestamp") {
		t.Error("field matching should be case-insensitive")
	}
	if !cfg.IgnoreField("created_at") {
		t.Error("created_at should match the _at pattern")
	}
	if cfg.IgnoreField("user_name") {
		t.Error("user_name should not be ignored")
	}
}

func TestIgnoreHeader(t *testing.T) {
	cfg := Default()

	t.Run("exact match is case-insensitive", func(t *testing.T) {
		if !cfg.IgnoreHeader("User-Agent") {
			t.Error("User-Agent should be ignored")
		}
		if !cfg.IgnoreHeader("COOKIE") {
			t.Error("COOKIE should be ignored")
		}
	})

	t.Run("wildcard prefix", func(t *testing.T) {
		if !cfg.IgnoreHeader("sec-fetch-mode") {
			t.Error("sec-fetch-mode should match sec-fetch-*")
		}
		if !cfg.IgnoreHeader("x-ratelimit-remaining") {
			t.Error("x-ratelimit-remaining should match x-ratelimit-*")
		}
	})

	t.Run("auth headers excluded by default", func(t *testing.T) {
		if !cfg.IgnoreHeader("access-token") || !cfg.IgnoreHeader("Authorization") {
			t.Error("auth headers should be ignored by default")
		}
	})

	t.Run("content headers survive", func(t *testing.T) {
		if cfg.IgnoreHeader("content-type") {
			t.Error("content-type must be compared")
		}
	})
}

func TestIsStaticAsset(t *testing.T) {
	cfg := Default()

	if !cfg.IsStaticAsset("/assets/app.js") {
		t.Error("/assets/app.js should be a static asset")
	}
	if !cfg.IsStaticAsset("/logo.PNG") {
		t.Error("extension matching should be case-insensitive")
	}
	if cfg.IsStaticAsset("/api/users") {
		t.Error("/api/users is not a static asset")
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	content := `call_marker: httpCall
ignore_fields:
  - sessionToken
ignore_headers:
  - x-custom-trace
`

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.CallMarker != "httpCall" {
		t.Errorf("expected overridden marker, got %q", cfg.CallMarker)
	}
	if !cfg.IgnoreField("sessionToken") {
		t.Error("loaded field should be ignored")
	}
	if !cfg.IgnoreField("timestamp") {
		t.Error("defaults should survive the merge")
	}
	if !cfg.IgnoreHeader("x-custom-trace") {
		t.Error("loaded header should be ignored")
	}
}

func TestLoadRejectsBadPattern(t *testing.T) {
	content := `ignore_patterns:
  - "["
`

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid regex")
	}
}

func TestAddIgnores(t *testing.T) {
	cfg := Default()

	if err := cfg.AddIgnores([]string{"nonce"}, []string{`^tmp_`}, []string{"x-debug"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.IgnoreField("nonce") || !cfg.IgnoreField("tmp_value") {
		t.Error("added ignores should apply")
	}
	if !cfg.IgnoreHeader("x-debug") {
		t.Error("added header should be ignored")
	}
}
