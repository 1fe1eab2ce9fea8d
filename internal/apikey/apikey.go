// Package apikey stores the Shodan API key in the same place the official
// Shodan CLI keeps it, so a key set up by either tool works for both.
package apikey

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/wesm/strend/internal/fileutil"
)

// FileName is the key file inside the key directory.
const FileName = "api_key"

// ErrMissing means no key file exists yet.
var ErrMissing = eris.New(`Missing API key, please run "strend init <API key>"`)

// Dir returns ~/.shodan when it already exists, else ~/.config/shodan.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "locate home directory")
	}
	legacy := filepath.Join(home, ".shodan")
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		return legacy, nil
	}
	return filepath.Join(home, ".config", "shodan"), nil
}

// Store reads and writes the key file in one directory.
type Store struct {
	dir string
}

// NewStore uses dir, or Dir() when dir is empty.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		d, err := Dir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return &Store{dir: dir}, nil
}

// Path returns the key file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load returns the stored key with one trailing newline removed.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrMissing
	}
	if err != nil {
		return "", eris.Wrapf(err, "read %s", s.Path())
	}
	key := strings.TrimSuffix(string(data), "\n")
	key = strings.TrimSuffix(key, "\r")
	if strings.TrimSpace(key) == "" {
		return "", ErrMissing
	}
	return key, nil
}

// Save trims key and writes it with owner-only permissions.
func (s *Store) Save(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return eris.New("API key is empty")
	}
	if err := fileutil.SecureMkdirAll(s.dir, 0o700); err != nil {
		return eris.Wrapf(err, "create %s", s.dir)
	}
	if err := fileutil.SecureWriteFile(s.Path(), []byte(key), 0o600); err != nil {
		return eris.Wrapf(err, "write %s", s.Path())
	}
	return nil
}
