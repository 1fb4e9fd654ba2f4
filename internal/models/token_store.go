package models

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const tokenFileName = ".auth_token"

// TokenStore persists the bearer token between runs
type TokenStore struct {
	TokenFile string
}

func NewTokenStore(configDir string) *TokenStore {
	return &TokenStore{
		TokenFile: filepath.Join(configDir, tokenFileName),
	}
}

func (ts *TokenStore) SaveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(ts.TokenFile), 0o755); err != nil {
		return err
	}
	tmp := ts.TokenFile + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.TrimSpace(token)), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, ts.TokenFile)
}

// GetToken returns the stored token, or ErrNotLoggedIn when there is none
func (ts *TokenStore) GetToken() (string, error) {
	data, err := os.ReadFile(ts.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotLoggedIn
		}
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (ts *TokenStore) ClearToken() error {
	if err := os.Remove(ts.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
