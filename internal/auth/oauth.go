package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const (
	// Peloton OAuth endpoints (auth domain, distinct from the API domain)
	AuthBaseURL = "https://auth.onepeloton.com"
	AuthURL     = AuthBaseURL + "/authorize"
	TokenURL    = AuthBaseURL + "/oauth/token"

	// DefaultExpirySeconds is used when the provider omits expires_in.
	DefaultExpirySeconds = 172800

	// ExpiryBuffer is how close to expiry a token is still considered usable.
	// Anything inside the buffer must be refreshed before use.
	ExpiryBuffer = 5 * time.Minute
)

// Scopes required for sync (workout history and performance data)
var Scopes = []string{
	"openid", "offline_access", "peloton.user.read", "peloton.workout.read",
}

// Config holds the OAuth client settings. PKCE clients carry no secret.
type Config struct {
	ClientID    string
	RedirectURL string // e.g., "http://localhost:8193/callback"
}

// NewOAuthConfig creates an oauth2.Config from our Config
func NewOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
	}
}

// Token is the credential set returned by a successful flow.
// Persisting it on the account's connection is the caller's job.
type Token struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
	Scope        string
}

// FromOAuth2 converts an oauth2 token, filling in the provider's
// default lifetime when no expiry was reported.
func FromOAuth2(t *oauth2.Token) *Token {
	tok := &Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = time.Now().Add(DefaultExpirySeconds * time.Second)
	}
	if id, ok := t.Extra("id_token").(string); ok {
		tok.IDToken = id
	}
	if scope, ok := t.Extra("scope").(string); ok {
		tok.Scope = scope
	}
	return tok
}

// OAuth2 converts back to the library representation.
func (t *Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

// Expired reports whether the token is expired or within the safety buffer.
func (t *Token) Expired(now time.Time) bool {
	return now.Add(ExpiryBuffer).After(t.Expiry)
}

// Authorization is the result of starting a PKCE flow.
type Authorization struct {
	URL      string // provider authorize URL to open in a browser
	Verifier string // PKCE code verifier, needed again at exchange time
	State    string // CSRF state, must match the callback
}

// BeginAuthorization generates a PKCE verifier/challenge pair and CSRF state
// and builds the provider's authorize URL. No side effects beyond randomness.
func BeginAuthorization(cfg *oauth2.Config, redirectURI string) (*Authorization, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	verifier := oauth2.GenerateVerifier()

	authCfg := *cfg
	if redirectURI != "" {
		authCfg.RedirectURL = redirectURI
	}

	url := authCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	return &Authorization{URL: url, Verifier: verifier, State: state}, nil
}

// ExchangeCode trades an authorization code (plus its PKCE verifier) for a token.
func ExchangeCode(ctx context.Context, cfg *oauth2.Config, code, verifier, redirectURI string) (*Token, error) {
	exCfg := *cfg
	if redirectURI != "" {
		exCfg.RedirectURL = redirectURI
	}

	tok, err := exCfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		if rerr, ok := err.(*oauth2.RetrieveError); ok {
			return nil, &AuthError{Kind: KindProvider, Reason: retrieveReason(rerr), Err: err}
		}
		return nil, &AuthError{Kind: KindTransport, Err: err}
	}
	if tok.AccessToken == "" {
		return nil, &AuthError{Kind: KindProvider, Reason: "no access token in response"}
	}

	return FromOAuth2(tok), nil
}

// retrieveReason extracts a human-readable reason from an oauth2 error response.
func retrieveReason(err *oauth2.RetrieveError) string {
	if err.ErrorDescription != "" {
		return err.ErrorDescription
	}
	if err.ErrorCode != "" {
		return err.ErrorCode
	}
	return fmt.Sprintf("token endpoint returned %s", err.Response.Status)
}

// generateState creates a random state string for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
