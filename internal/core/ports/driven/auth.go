package driven

import "context"

// TokenProvider provides the bearer token for authenticated backend calls.
// Token issuance happens elsewhere; the token is opaque to the client.
type TokenProvider interface {
	// GetToken returns the current access token.
	// Returns domain.ErrAuthRequired when none is stored and
	// domain.ErrAuthExpired when the stored token is past its expiry.
	GetToken(ctx context.Context) (string, error)

	// IsAuthenticated returns true if a usable token is available.
	IsAuthenticated() bool
}

// AccessToken is issued by the backend on login or signup.
type AccessToken struct {
	Token string
	Type  string
}

// AuthClient exchanges credentials for an access token.
type AuthClient interface {
	// Login authenticates an existing account.
	Login(ctx context.Context, email, password string) (AccessToken, error)

	// Signup creates an account and returns its first token.
	Signup(ctx context.Context, email, password string) (AccessToken, error)
}
