package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avilar/recordatorio-bot/internal/pkg/logger"
)

func writeUsers(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write users file: %v", err)
	}
	// Nudge the mtime so consecutive writes within the same timer tick are
	// still detected.
	stamp := time.Now().Add(time.Duration(len(content)) * time.Second)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestIsAllowed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usuarios.json")
	writeUsers(t, path, `["111", "222"]`)

	p := NewFileProvider(path, logger.Discard())
	if !p.IsAllowed("111") || !p.IsAllowed("222") {
		t.Fatalf("listed users must be allowed")
	}
	if p.IsAllowed("999") {
		t.Fatalf("unlisted user must not be allowed")
	}
}

func TestReloadOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usuarios.json")
	writeUsers(t, path, `["111"]`)

	p := NewFileProvider(path, logger.Discard())
	if p.IsAllowed("333") {
		t.Fatalf("user 333 should not be allowed yet")
	}

	writeUsers(t, path, `["111", "333"]`)
	if !p.IsAllowed("333") {
		t.Fatalf("provider must pick up the rewritten file")
	}

	writeUsers(t, path, `["333"]`)
	if p.IsAllowed("111") {
		t.Fatalf("removed user must lose access after reload")
	}
}

func TestMalformedFileKeepsPreviousSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usuarios.json")
	writeUsers(t, path, `["111"]`)

	p := NewFileProvider(path, logger.Discard())
	if !p.IsAllowed("111") {
		t.Fatalf("initial load failed")
	}

	writeUsers(t, path, `{broken`)
	if !p.IsAllowed("111") {
		t.Fatalf("malformed file must keep the previous snapshot")
	}
}

func TestMissingFileAllowsNobody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usuarios.json")

	p := NewFileProvider(path, logger.Discard())
	if p.IsAllowed("111") {
		t.Fatalf("missing file must authorize nobody")
	}

	writeUsers(t, path, `["111"]`)
	if !p.IsAllowed("111") {
		t.Fatalf("provider must recover once the file appears")
	}
}
