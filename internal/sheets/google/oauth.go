package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthConfig builds the user-consent config for the Sheets scope from an
// OAuth client (inline JSON wins over the file).
func OAuthConfig(clientJSON, clientFile, redirectURL string) (*oauth2.Config, error) {
	var b []byte
	switch {
	case strings.TrimSpace(clientJSON) != "":
		b = []byte(clientJSON)
	case strings.TrimSpace(clientFile) != "":
		data, err := os.ReadFile(clientFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		b = data
	default:
		return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	cfg, err := googleoauth.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	if redirectURL != "" {
		cfg.RedirectURL = redirectURL
	}
	return cfg, nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_FILE)")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open oauth token: %w", err)
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("oauth token has neither access nor refresh token")
	}
	return &tok, nil
}

// SaveToken writes tok as JSON, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// userTokenSource returns a refreshing token source for the stored user token.
func userTokenSource(ctx context.Context, opts Options) (oauth2.TokenSource, error) {
	cfg, err := OAuthConfig(opts.OAuthClientJSON, opts.OAuthClientFile, "")
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(opts.OAuthTokenFile)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, tok), nil
}
