// ABOUTME: OAuth2 token caching for the REST record store
// ABOUTME: Tokens are kept at XDG paths so short-lived CLI runs reuse them
package remote

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/logging"
)

// TokenPath returns the XDG path for the cached access token.
func TokenPath() string {
	return filepath.Join(config.DataDir(), "remote-token.json")
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

type savingSource struct {
	src  oauth2.TokenSource
	path string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if err := SaveToken(s.path, tok); err != nil {
		logging.For("remote").WithError(err).Debug("token not cached")
	}
	return tok, nil
}

// CachedTokenSource serves a still-valid token from path, fetching and saving a new one otherwise.
func CachedTokenSource(src oauth2.TokenSource, path string) oauth2.TokenSource {
	initial, err := LoadToken(path)
	if err != nil {
		initial = nil
	}
	return oauth2.ReuseTokenSource(initial, &savingSource{src: src, path: path})
}
