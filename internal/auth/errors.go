package auth

import "fmt"

// Kind classifies authentication failures so callers can tell a
// provider rejection apart from a network problem.
type Kind int

const (
	// KindTransport is a network or protocol level failure.
	KindTransport Kind = iota
	// KindBadCredentials means the provider rejected the username/password.
	KindBadCredentials
	// KindNoRefreshToken means a refresh was requested with no refresh token held.
	KindNoRefreshToken
	// KindRefreshRejected means the provider refused the refresh grant,
	// typically because the refresh token was revoked or expired.
	KindRefreshRejected
	// KindProvider is any other well-formed rejection from the auth provider.
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBadCredentials:
		return "bad_credentials"
	case KindNoRefreshToken:
		return "no_refresh_token"
	case KindRefreshRejected:
		return "refresh_rejected"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// AuthError is returned for any failure during token acquisition or refresh.
// Reason carries the provider-reported message when one was available.
type AuthError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("auth failed (%s): %s", e.Kind, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("auth failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth failed (%s)", e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
