package auth

import (
	"context"

	"go-auth-service/internal/model"
)

// Refresher validates refresh tokens and rotates them into fresh pairs. The
// consumed token is not invalidated; it stays usable until its own expiry.
type Refresher struct {
	codec  *Codec
	issuer *Issuer
	source CredentialSource
}

func NewRefresher(codec *Codec, issuer *Issuer, source CredentialSource) *Refresher {
	return &Refresher{codec: codec, issuer: issuer, source: source}
}

// Renew exchanges a valid refresh token for a brand-new pair. A token that
// fails to decode, carries the wrong type, or references a user that no
// longer exists all fail with ErrInvalidToken.
func (r *Refresher) Renew(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := r.codec.Decode(refreshToken, TokenTypeRefresh)
	if err != nil {
		return model.TokenPair{}, ErrInvalidToken
	}

	cred, found, err := r.source.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !found {
		return model.TokenPair{}, ErrInvalidToken
	}

	return r.issuer.IssuePair(Identity{Email: cred.Email, Username: cred.Username})
}
