// Package auth supplies bearer credentials to tool server transports.
//
// The credential is opaque to the transport: it asks for a token before each
// call and attaches it as "Authorization: Bearer <token>".
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoCredential is returned when a source has nothing to offer.
var ErrNoCredential = errors.New("no credential available")

// CredentialSource yields the bearer token for the next call.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token. An empty Static means "send no Authorization header".
type Static string

// Token returns the fixed token.
func (s Static) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// OAuth2Config describes a refresh-token grant against a token endpoint.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	RefreshToken string
	Scopes       []string
}

// Validate checks that a refresh can be attempted.
func (c OAuth2Config) Validate() error {
	if c.TokenURL == "" {
		return fmt.Errorf("oauth token_url is required")
	}
	if c.RefreshToken == "" {
		return fmt.Errorf("oauth refresh_token is required")
	}
	return nil
}

// OAuth2 adapts an oauth2.TokenSource. Tokens are cached and refreshed by
// oauth2.ReuseTokenSource, so concurrent callers share one refresh.
type OAuth2 struct {
	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewOAuth2 wraps an existing token source.
func NewOAuth2(src oauth2.TokenSource) *OAuth2 {
	return &OAuth2{src: oauth2.ReuseTokenSource(nil, src)}
}

// NewRefreshingOAuth2 builds a source that exchanges the configured refresh
// token for access tokens whenever the cached one expires.
func NewRefreshingOAuth2(ctx context.Context, cfg OAuth2Config) (*OAuth2, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		Scopes:       cfg.Scopes,
	}

	return NewOAuth2(oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})), nil
}

// Token returns a valid access token, refreshing it when needed.
func (o *OAuth2) Token(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	tok, err := o.src.Token()
	if err != nil {
		return "", fmt.Errorf("oauth token: %w", err)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return "", ErrNoCredential
	}
	return tok.AccessToken, nil
}
