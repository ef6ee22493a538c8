package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider != "logic" {
		t.Fatalf("Provider = %q, want %q", cfg.Provider, "logic")
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.MaxChars != 8000 {
		t.Fatalf("MaxChars = %d, want 8000", cfg.MaxChars)
	}
	if cfg.RateLimit != 30 || cfg.RateWindow != time.Minute {
		t.Fatalf("rate = %d/%v, want 30/1m", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.TrustProxyHeaders {
		t.Fatalf("TrustProxyHeaders = true, want false by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEETING_SNAP_PROVIDER", "  FAKE ")
	t.Setenv("MEETING_SNAP_TIMEOUT_MS", "2500")
	t.Setenv("MEETING_SNAP_MAX_CHARS", "100")
	t.Setenv("MEETING_SNAP_RATE_LIMIT", "0")
	t.Setenv("APP_TRUST_PROXY_HEADERS", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider != "fake" {
		t.Fatalf("Provider = %q, want fake", cfg.Provider)
	}
	if cfg.Timeout != 2500*time.Millisecond {
		t.Fatalf("Timeout = %v, want 2.5s", cfg.Timeout)
	}
	if cfg.MaxChars != 100 {
		t.Fatalf("MaxChars = %d, want 100", cfg.MaxChars)
	}
	if cfg.RateLimit != 0 {
		t.Fatalf("RateLimit = %d, want 0", cfg.RateLimit)
	}
	if !cfg.TrustProxyHeaders {
		t.Fatalf("TrustProxyHeaders = false, want true")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"MEETING_SNAP_TIMEOUT_MS":    "soon",
		"MEETING_SNAP_MAX_CHARS":     "0",
		"MEETING_SNAP_RATE_LIMIT":    "-1",
		"MEETING_SNAP_RATE_WINDOW_S": "0",
		"APP_TRUST_PROXY_HEADERS":    "maybe",
		"APP_LOG_FORMAT":             "xml",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q expected error", key, value)
			}
		})
	}
}

func TestLoadFileWithEnvPrecedence(t *testing.T) {
	setCoreEnvEmpty(t)
	path := filepath.Join(t.TempDir(), "meetingsnap.yaml")
	yaml := "provider: openai\nmax_chars: 500\nrate_limit: 5\nshutdown_timeout: 3s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MEETING_SNAP_MAX_CHARS", "600")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Provider != "openai" {
		t.Fatalf("Provider = %q, want openai from file", cfg.Provider)
	}
	if cfg.MaxChars != 600 {
		t.Fatalf("MaxChars = %d, want env override 600", cfg.MaxChars)
	}
	if cfg.RateLimit != 5 {
		t.Fatalf("RateLimit = %d, want 5", cfg.RateLimit)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 3s", cfg.ShutdownTimeout)
	}
	if cfg.ConfigFile != path {
		t.Fatalf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadFileMissing(t *testing.T) {
	setCoreEnvEmpty(t)
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("LoadFile() expected error for missing file")
	}
}

func TestLiveReload(t *testing.T) {
	setCoreEnvEmpty(t)
	initial, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	live := NewLive(initial, Load, func(c Config) error {
		if c.Provider == "bogus" {
			return errors.New("unknown provider")
		}
		return nil
	})

	t.Setenv("MEETING_SNAP_RATE_LIMIT", "7")
	next, err := live.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if next.RateLimit != 7 || live.Current().RateLimit != 7 {
		t.Fatalf("RateLimit after reload = %d, want 7", live.Current().RateLimit)
	}

	t.Setenv("MEETING_SNAP_PROVIDER", "bogus")
	if _, err := live.Reload(); err == nil {
		t.Fatalf("Reload() expected rejection")
	}
	if live.Current().Provider != "logic" {
		t.Fatalf("Provider = %q, want previous config kept", live.Current().Provider)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	t.Setenv("MEETING_SNAP_CONFIG", "")
	for key := range envKeys {
		t.Setenv(key, "")
	}
}
