package driving

import "context"

// AuthService manages the stored backend token.
type AuthService interface {
	// Login exchanges credentials for a token and stores it.
	Login(ctx context.Context, email, password string) error

	// Signup creates an account and stores its token.
	Signup(ctx context.Context, email, password string) error

	// Logout forgets the stored token.
	Logout() error

	// IsAuthenticated returns true if a usable token is stored.
	IsAuthenticated() bool
}
