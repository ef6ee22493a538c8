package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/meetingsnap/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Provider:   "logic",
		Timeout:    time.Second,
		MaxChars:   8000,
		RateLimit:  30,
		RateWindow: time.Minute,
	}
}

func TestWriteSnapMarkdown(t *testing.T) {
	var out bytes.Buffer
	err := writeSnap(context.Background(), testConfig(), "Alice will send the report by Friday.", "markdown", &out, zap.NewNop())
	if err != nil {
		t.Fatalf("writeSnap() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "# Meeting Snap\n") {
		t.Fatalf("unexpected markdown:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "send the report (Alice") {
		t.Fatalf("markdown missing action:\n%s", out.String())
	}
}

func TestWriteSnapJSONWithFakeProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = "fake"

	var out bytes.Buffer
	if err := writeSnap(context.Background(), cfg, "anything", "json", &out, zap.NewNop()); err != nil {
		t.Fatalf("writeSnap() error = %v", err)
	}
	var got snapOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.Path != "fake" || got.Fallback || got.Digest == "" {
		t.Fatalf("unexpected output: %+v", got)
	}
	if len(got.Snapshot.Decisions) != 1 {
		t.Fatalf("decisions = %v, want one", got.Snapshot.Decisions)
	}
}

func TestWriteSnapRejections(t *testing.T) {
	cfg := testConfig()
	cfg.MaxChars = 5
	if err := writeSnap(context.Background(), cfg, "far too long", "markdown", &bytes.Buffer{}, zap.NewNop()); err == nil || !strings.Contains(err.Error(), "Trim input to 5 characters.") {
		t.Fatalf("too-long input error = %v", err)
	}
	if err := writeSnap(context.Background(), testConfig(), "x", "yaml", &bytes.Buffer{}, zap.NewNop()); err == nil {
		t.Fatalf("unknown format should fail")
	}
	cfg = testConfig()
	cfg.Provider = "nope"
	if err := writeSnap(context.Background(), cfg, "x", "json", &bytes.Buffer{}, zap.NewNop()); err == nil {
		t.Fatalf("unknown provider should fail")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug", "console"); err != nil {
		t.Fatalf("newLogger(console) error = %v", err)
	}
	if _, err := newLogger("info", "json"); err != nil {
		t.Fatalf("newLogger(json) error = %v", err)
	}
	if _, err := newLogger("loud", "json"); err == nil {
		t.Fatalf("newLogger should reject unknown level")
	}
}
