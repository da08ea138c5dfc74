package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// Ensure AuthService implements the interfaces.
var (
	_ driving.AuthService  = (*AuthService)(nil)
	_ driven.TokenProvider = (*AuthService)(nil)
)

// EnvToken overrides the stored token when set.
//
//nolint:gosec // G101: This is an environment variable name, not a credential.
const EnvToken = "CORTEX_TOKEN"

// expiryLeeway treats tokens this close to expiry as expired.
const expiryLeeway = 30 * time.Second

// AuthService stores the backend token and hands it to the rest of the
// application. It is both the login flow and the token provider.
type AuthService struct {
	client      driven.AuthClient
	configStore driven.ConfigStore
	getenv      func(string) string
	now         func() time.Time
}

// NewAuthService creates an auth service. client may be nil when only
// stored tokens are used.
func NewAuthService(client driven.AuthClient, configStore driven.ConfigStore) *AuthService {
	return &AuthService{
		client:      client,
		configStore: configStore,
		getenv:      os.Getenv,
		now:         time.Now,
	}
}

// Login exchanges credentials for a token and stores it.
func (s *AuthService) Login(ctx context.Context, email, password string) error {
	return s.exchange(ctx, email, password, false)
}

// Signup creates an account and stores its token.
func (s *AuthService) Signup(ctx context.Context, email, password string) error {
	return s.exchange(ctx, email, password, true)
}

func (s *AuthService) exchange(ctx context.Context, email, password string, signup bool) error {
	if s.client == nil {
		return fmt.Errorf("auth client: %w", domain.ErrNotImplemented)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email %q: %w", email, domain.ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("password required: %w", domain.ErrInvalidInput)
	}

	var (
		tok driven.AccessToken
		err error
	)
	if signup {
		tok, err = s.client.Signup(ctx, email, password)
	} else {
		tok, err = s.client.Login(ctx, email, password)
	}
	if err != nil {
		if driven.BackendKind(err) == driven.BackendUnauthorized {
			return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
		}
		return fmt.Errorf("authenticate: %w", err)
	}
	if tok.Token == "" {
		return fmt.Errorf("backend returned an empty token: %w", domain.ErrAuthInvalid)
	}

	return s.store(tok.Token, tokenExpiry(tok.Token))
}

// Logout forgets the stored token.
func (s *AuthService) Logout() error {
	if err := s.configStore.Delete(keyAuthToken); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	if err := s.configStore.Delete(keyAuthExpiry); err != nil {
		return fmt.Errorf("remove token expiry: %w", err)
	}
	return nil
}

// GetToken returns the current token. The environment override wins.
func (s *AuthService) GetToken(_ context.Context) (string, error) {
	if tok := strings.TrimSpace(s.getenv(EnvToken)); tok != "" {
		return tok, nil
	}
	tok := s.configStore.GetString(keyAuthToken)
	if tok == "" {
		return "", domain.ErrAuthRequired
	}
	if exp := s.expiry(); !exp.IsZero() && !s.now().Add(expiryLeeway).Before(exp) {
		return "", domain.ErrAuthExpired
	}
	return tok, nil
}

// IsAuthenticated returns true if a usable token is available.
func (s *AuthService) IsAuthenticated() bool {
	_, err := s.GetToken(context.Background())
	return err == nil
}

// Expiry returns the stored token's expiry, zero when unknown.
func (s *AuthService) Expiry() time.Time {
	return s.expiry()
}

func (s *AuthService) expiry() time.Time {
	raw := s.configStore.GetString(keyAuthExpiry)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *AuthService) store(token string, expiry time.Time) error {
	if err := s.configStore.Set(keyAuthToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	raw := ""
	if !expiry.IsZero() {
		raw = expiry.UTC().Format(time.RFC3339)
	}
	if err := s.configStore.Set(keyAuthExpiry, raw); err != nil {
		return fmt.Errorf("save token expiry: %w", err)
	}
	logger.Debug("stored token (expires %s)", raw)
	return nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it.
// Opaque tokens yield a zero time.
func tokenExpiry(token string) time.Time {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp <= 0 {
		return time.Time{}
	}
	return time.Unix(claims.Exp, 0)
}
