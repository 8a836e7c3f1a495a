// Package auth stores the marketplace credential the CLI signs in with.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meysamhadeli/dappai/apperrors"
)

const credentialsFile = "credentials.json"

// Credential is the persisted sign-in token.
type Credential struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// Store reads and writes the credential file in a config directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, normally ~/.dappai.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns ~/.dappai, falling back to a relative .dappai.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dappai"
	}
	return filepath.Join(home, ".dappai")
}

// Path is the credential file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, credentialsFile)
}

// Load returns the stored credential or a setup error telling the user to log in.
func (s *Store) Load() (*Credential, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.ErrMissingCredential(s.Path())
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential: %w", err)
	}

	var credential Credential
	if err := json.Unmarshal(data, &credential); err != nil {
		return nil, apperrors.ErrMissingCredential(s.Path()).WithCause(err)
	}
	if strings.TrimSpace(credential.Token) == "" {
		return nil, apperrors.ErrMissingCredential(s.Path())
	}
	return &credential, nil
}

// Save writes the token with owner-only permissions.
func (s *Store) Save(token string, now time.Time) (*Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("token must not be empty")
	}

	credential := &Credential{Token: token, SavedAt: now.UTC()}
	data, err := json.MarshalIndent(credential, "", "  ")
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating %s: %w", s.dir, err)
	}
	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		return nil, fmt.Errorf("writing credential: %w", err)
	}
	return credential, nil
}

// Clear removes the stored credential. A missing file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
