// Package secrets is the key-value secret store scoped to one installation.
// Lookup order is environment variable first, then a JSON file in the config
// directory, so deployments can inject secrets via the platform while local
// runs keep them on disk. Credentials never go into config.yml or source.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Well-known secret names. The client only needs the first two; the rest
// belong to the API server's database connection.
const (
	KeyAPIKey       = "api-key"
	KeySheetsCreds  = "sheets-credentials"
	KeyDBHost       = "db-host"
	KeyDBPort       = "db-port"
	KeyDBName       = "db-name"
	KeyDBUser       = "db-user"
	KeyDBPassword   = "db-password"
	secretsFileName = "secrets.json"
)

// ErrNotFound reports a secret that exists in neither the environment nor
// the file store.
var ErrNotFound = errors.New("secret not found")

// Store reads and writes secrets. Set/Delete/List only touch the file store;
// Get consults the environment first.
type Store struct {
	path string
}

// NewStore opens the store backed by <dir>/secrets.json. The file is created
// lazily on first Set.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, secretsFileName)}
}

// EnvName maps a secret name to its environment variable form:
// "api-key" -> "API_KEY".
func EnvName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Get returns the secret value, environment variable first.
func (s *Store) Get(name string) (string, error) {
	if v := os.Getenv(EnvName(name)); v != "" {
		return v, nil
	}
	m, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := m[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s (set %s or run `exchangesync secret set %s`)", ErrNotFound, name, EnvName(name), name)
	}
	return v, nil
}

// Set writes the secret into the file store. The file is kept at 0600.
func (s *Store) Set(name, value string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	m[name] = value
	return s.save(m)
}

func (s *Store) Delete(name string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(m, name)
	return s.save(m)
}

// List returns the names stored in the file, sorted. Values are not
// returned; use Preview for display.
func (s *Store) List() ([]string, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	return m, nil
}

func (s *Store) save(m map[string]string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Preview renders a secret for logs and listings: the first four characters
// followed by an ellipsis. This is the only form in which a credential may
// ever be logged.
func Preview(secret string) string {
	runes := []rune(secret)
	if len(runes) <= 4 {
		return "****"
	}
	return string(runes[:4]) + "..."
}
