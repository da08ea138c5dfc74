// Package auth adapts token providers to oauth2 token sources for the
// backend HTTP client.
package auth

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

// expiringProvider is implemented by providers that know when their token expires.
type expiringProvider interface {
	Expiry() time.Time
}

// TokenSourceAdapter adapts a driven.TokenProvider to oauth2.TokenSource.
type TokenSourceAdapter struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider. The
// token is cached until it expires when the provider reports an expiry.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	src := &TokenSourceAdapter{
		provider: provider,
		ctx:      ctx,
	}
	if _, ok := provider.(expiringProvider); ok {
		return oauth2.ReuseTokenSource(nil, src)
	}
	return src
}

// Token implements oauth2.TokenSource.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.GetToken(t.ctx)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}
	if p, ok := t.provider.(expiringProvider); ok {
		tok.Expiry = p.Expiry()
	}
	return tok, nil
}
