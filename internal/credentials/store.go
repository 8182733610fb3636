package credentials

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// credentialFile is the well-known key the API credential is persisted
// under, relative to the user config dir. It is the only durable state the
// service keeps; presets, results, and templates live for the process only.
const credentialFile = "scenestudio/credential"

// Store persists a single string-valued credential on disk.
type Store struct {
	path string
}

// NewStore creates a credential store. An empty path resolves to the
// well-known location under the user config dir.
func NewStore(path string) *Store {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			log.Warn().Err(err).Msg("No user config dir, credential persistence disabled")
			return &Store{}
		}
		path = filepath.Join(configDir, credentialFile)
	}
	return &Store{path: path}
}

// Load returns the persisted credential, or empty when none is stored.
func (s *Store) Load() string {
	if s.path == "" {
		return ""
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("Failed to read credential")
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save writes the credential with owner-only permissions. An empty value
// removes the stored credential.
func (s *Store) Save(value string) error {
	if s.path == "" {
		return nil
	}
	if value == "" {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(value+"\n"), 0o600)
}
