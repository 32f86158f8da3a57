package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lazypower/legacy/internal/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LEGACY_CONFIG", "LEGACY_DB", "LEGACY_DELIVERY", "LEGACY_WEBHOOK_URL", "GMAIL_USER", "GMAIL_APP_PASSWORD", "LEGACY_JWT_SECRET"} {
		t.Setenv(k, "")
	}
	configPath, dbOverride = "", ""
}

func TestLocalWorkflow(t *testing.T) {
	cleanEnv(t)
	db := filepath.Join(t.TempDir(), "legacy.db")

	out, err := run(t, "register", "alice@example.com", "--name", "Alice", "--db", db)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.Contains(out, "registered alice@example.com") {
		t.Errorf("register output = %q", out)
	}

	out, err = run(t, "settings", "alice@example.com", "--threshold", "3",
		"--name", "Bob", "--contact", "bob@example.com", "--relation", "brother", "--db", db)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if !strings.Contains(out, "3 days") || !strings.Contains(out, "Bob <bob@example.com> (brother)") {
		t.Errorf("settings output = %q", out)
	}

	if _, err := run(t, "touch", "alice@example.com", "--db", db); err != nil {
		t.Fatalf("touch: %v", err)
	}

	out, err = run(t, "status", "alice@example.com", "--db", db)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "(0 days ago)") {
		t.Errorf("status output = %q", out)
	}

	out, err = run(t, "sweep", "--db", db)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "candidates:        1") || !strings.Contains(out, "notified:          0") {
		t.Errorf("sweep output = %q", out)
	}
}

func TestSettingsRejectsBadThreshold(t *testing.T) {
	cleanEnv(t)
	db := filepath.Join(t.TempDir(), "legacy.db")
	if _, err := run(t, "register", "carol@example.com", "--db", db); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := run(t, "settings", "carol@example.com", "--threshold", "0", "--name", "", "--contact", "", "--relation", "", "--db", db); err == nil {
		t.Error("expected threshold 0 to be rejected")
	}
}

func TestTokenCommand(t *testing.T) {
	cleanEnv(t)
	t.Setenv("LEGACY_JWT_SECRET", "s3cret")

	out, err := run(t, "token", "alice@example.com")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := auth.Verify("s3cret", "legacy", strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Errorf("Subject = %q", claims.Subject)
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	cleanEnv(t)
	if _, err := run(t, "token", "alice@example.com"); err == nil {
		t.Error("expected error without a signing secret")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestPingChecksHealthFirst(t *testing.T) {
	cleanEnv(t)
	var pinged atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/ping" {
			pinged.Store(true)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	out, err := run(t, "ping", "--url", ts.URL, "--token", "tok")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !pinged.Load() || strings.TrimSpace(out) != "ok" {
		t.Errorf("pinged = %v, output = %q", pinged.Load(), out)
	}

	ts.Close()
	_, err = run(t, "ping", "--url", ts.URL, "--token", "tok")
	if err == nil || !strings.Contains(err.Error(), "server unreachable") {
		t.Errorf("err = %v, want server unreachable", err)
	}
}
