package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".vedchat", "sessions", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestDBPath(t *testing.T) {
	got := DBPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "vedchat.db")) {
		t.Errorf("DBPath(test) = %q, want suffix sessions/test/vedchat.db", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "LOCK")) {
		t.Errorf("LockPath(test) = %q, want suffix sessions/test/LOCK", got)
	}
}

func TestLocationPath(t *testing.T) {
	got := LocationPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "location")) {
		t.Errorf("LocationPath(test) = %q, want suffix sessions/test/location", got)
	}
}
