package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSetGetDelete(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Get("api-key"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set("api-key", "sk-12345"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := store.Get("api-key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "sk-12345" {
		t.Errorf("got %q, want sk-12345", v)
	}
	if err := store.Delete("api-key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get("api-key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Set("db-host", "from-file"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	t.Setenv("DB_HOST", "from-env")

	v, err := store.Get("db-host")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "from-env" {
		t.Errorf("got %q, want env value to win", v)
	}
}

func TestFilePermissions(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := store.Set("db-password", "hunter2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "secrets.json"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("secrets file mode = %o, want 600", perm)
	}
}

func TestList(t *testing.T) {
	store := NewStore(t.TempDir())
	for _, name := range []string{"db-user", "api-key", "db-host"} {
		if err := store.Set(name, "x"); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	names, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"api-key", "db-host", "db-user"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestEnvName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"api-key", "API_KEY"},
		{"db-password", "DB_PASSWORD"},
		{"simple", "SIMPLE"},
	}
	for _, tt := range tests {
		if got := EnvName(tt.name); got != tt.want {
			t.Errorf("EnvName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		secret string
		want   string
	}{
		{"sk-1234567890", "sk-1..."},
		{"abc", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		if got := Preview(tt.secret); got != tt.want {
			t.Errorf("Preview(%q) = %q, want %q", tt.secret, got, tt.want)
		}
	}
}
