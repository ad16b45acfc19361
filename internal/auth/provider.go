// Package auth obtains OAuth2 tokens that let pgen write to a user's
// Google Drive.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/joshmayeda/pGEN-server/internal/errs"
)

// TokenProvider exchanges authorization grants for access tokens
type TokenProvider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
}

// GoogleConfig holds the OAuth client registration
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides google.Endpoint when set
	Endpoint oauth2.Endpoint
}

// GoogleProvider is a TokenProvider for Google accounts limited to
// files the app creates in Drive
type GoogleProvider struct {
	config     *oauth2.Config
	HTTPClient *http.Client
}

// NewGoogleProvider creates a provider for the given client registration
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{drive.DriveFileScope},
		},
	}
}

// Configured reports whether a client id and secret are present
func (p *GoogleProvider) Configured() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != ""
}

// AuthCodeURL returns the consent page URL. Offline access is requested
// so the exchange yields a refresh token.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeCode trades an authorization code for a token
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errs.New(errs.InvalidRequest, "", "authorization code is required")
	}

	tok, err := p.config.Exchange(p.withClient(ctx), code)
	if err != nil {
		return nil, errs.Wrap(errs.Unauthorized, "", err, "failed to exchange authorization code")
	}

	slog.Debug("Exchanged authorization code", "expiry", tok.Expiry, "has_refresh_token", tok.RefreshToken != "")
	return tok, nil
}

// Refresh obtains a fresh access token from a refresh token
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, errs.New(errs.InvalidRequest, "", "refresh token is required")
	}

	ts := p.config.TokenSource(p.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, errs.Wrap(errs.Unauthorized, "", err, "failed to refresh access token")
	}
	return tok, nil
}

// TokenSource returns a source that refreshes tok as needed
func (p *GoogleProvider) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return p.config.TokenSource(p.withClient(ctx), tok)
}

func (p *GoogleProvider) withClient(ctx context.Context) context.Context {
	if p.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
}
