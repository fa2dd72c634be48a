package calendar

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

const tokenExchangeTimeout = 30 * time.Second

// LoadOAuthConfig reads a Google OAuth client secrets file (desktop app).
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secrets %s: %w", credentialsFile, err)
	}
	conf, err := google.ConfigFromJSON(b, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}
	if conf.RedirectURL == "" || conf.RedirectURL == "urn:ietf:wg:oauth:2.0:oob" {
		conf.RedirectURL = "http://localhost"
	}
	return conf, nil
}

// TokenFromFile reads a cached OAuth token.
func TokenFromFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// HTTPClient returns a client that authenticates with the cached token and
// refreshes it as needed. Run Login first when no token exists.
func HTTPClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	conf, err := LoadOAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := TokenFromFile(tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no calendar token at %s (run: myday calendar login)", tokenFile)
	}
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, tok)), nil
}

// Login runs the copy-paste authorization code flow: it prints the consent
// URL to out, reads the code (or the whole redirect URL) from in, exchanges
// it and caches the token at tokenFile.
func Login(ctx context.Context, conf *oauth2.Config, tokenFile string, in io.Reader, out io.Writer) error {
	verifier := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(out, "Open this URL in your browser and approve access:")
	fmt.Fprintln(out, authURL)
	fmt.Fprint(out, "Paste the code (or the full redirect URL): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read authorization code: %w", err)
	}
	code := ExtractCode(line)
	if code == "" {
		return errors.New("no authorization code entered")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	tok, err := conf.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := SaveToken(tokenFile, tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(out, "Token saved to %s\n", tokenFile)
	return nil
}

// ExtractCode accepts either a bare authorization code or a redirect URL
// carrying one in its code parameter.
func ExtractCode(input string) string {
	s := strings.TrimSpace(input)
	if strings.Contains(s, "code=") {
		if u, err := url.Parse(s); err == nil {
			if c := u.Query().Get("code"); c != "" {
				return c
			}
		}
	}
	return s
}
