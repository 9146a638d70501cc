package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenSource wraps oauth2.TokenSource with persistence
// It automatically refreshes tokens and calls onRefresh when a new token is obtained
type TokenSource struct {
	config    *oauth2.Config
	token     *Token
	onRefresh func(*Token) error
	mu        sync.Mutex
}

// NewTokenSource creates a new TokenSource that will refresh tokens as needed
// and call onRefresh to persist new tokens
func NewTokenSource(cfg *oauth2.Config, token *Token, onRefresh func(*Token) error) *TokenSource {
	return &TokenSource{
		config:    cfg,
		token:     token,
		onRefresh: onRefresh,
	}
}

// Token returns a valid token, refreshing if necessary.
// Implements oauth2.TokenSource.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.token.Expired(time.Now()) {
		return ts.token.OAuth2(), nil
	}

	tok, err := ts.refreshLocked()
	if err != nil {
		return nil, err
	}
	return tok.OAuth2(), nil
}

// Refresh exchanges the stored refresh token for a new access token
// regardless of the current token's expiry.
func (ts *TokenSource) Refresh() (*Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.refreshLocked()
}

func (ts *TokenSource) refreshLocked() (*Token, error) {
	if ts.token.RefreshToken == "" {
		return nil, &AuthError{Kind: KindNoRefreshToken, Reason: "no refresh token held"}
	}

	// Seed the source with only the refresh token so the library performs
	// a real refresh even when the current access token has not expired yet
	// (a 401 means the server no longer honors it).
	src := ts.config.TokenSource(context.Background(), &oauth2.Token{RefreshToken: ts.token.RefreshToken})
	raw, err := src.Token()
	if err != nil {
		if rerr, ok := err.(*oauth2.RetrieveError); ok {
			return nil, &AuthError{Kind: KindRefreshRejected, Reason: retrieveReason(rerr), Err: err}
		}
		return nil, &AuthError{Kind: KindTransport, Err: err}
	}

	newToken := FromOAuth2(raw)
	// The provider may omit the refresh token on rotation; keep the old one.
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = ts.token.RefreshToken
	}

	// Persist the new token if callback is set
	if ts.onRefresh != nil {
		if err := ts.onRefresh(newToken); err != nil {
			return nil, err
		}
	}

	ts.token = newToken
	return newToken, nil
}

// IsExpired checks if the current token is expired or within the safety buffer
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token.Expired(time.Now())
}

// CurrentToken returns the current token without refreshing
func (ts *TokenSource) CurrentToken() *Token {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token
}
