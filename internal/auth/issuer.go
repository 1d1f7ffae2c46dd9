package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-auth-service/internal/model"
)

// Identity is the subject a token pair is issued for.
type Identity struct {
	Email    string
	Username string
}

// Issuer builds access/refresh token pairs with fixed lifetimes.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(codec *Codec, accessTTL time.Duration, refreshTTL time.Duration) (*Issuer, error) {
	if accessTTL <= 0 {
		return nil, errors.New("access token lifetime must be positive")
	}
	if refreshTTL <= 0 {
		return nil, errors.New("refresh token lifetime must be positive")
	}

	return &Issuer{codec: codec, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}, nil
}

func (i *Issuer) IssueAccess(identity Identity) (string, error) {
	return i.issueAccessAt(identity, i.now().UTC())
}

func (i *Issuer) IssueRefresh(identity Identity) (string, error) {
	return i.issueRefreshAt(identity, i.now().UTC())
}

// IssuePair captures "now" once so both tokens share the same issuance
// instant.
func (i *Issuer) IssuePair(identity Identity) (model.TokenPair, error) {
	now := i.now().UTC()

	accessToken, err := i.issueAccessAt(identity, now)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := i.issueRefreshAt(identity, now)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

func (i *Issuer) issueAccessAt(identity Identity, now time.Time) (string, error) {
	return i.codec.Encode(jwt.MapClaims{
		"sub":      identity.Email,
		"username": identity.Username,
		"type":     TokenTypeAccess,
		"iat":      now.Unix(),
		"exp":      now.Add(i.accessTTL).Unix(),
	})
}

// Refresh tokens carry only the subject, never the username.
func (i *Issuer) issueRefreshAt(identity Identity, now time.Time) (string, error) {
	return i.codec.Encode(jwt.MapClaims{
		"sub":  identity.Email,
		"type": TokenTypeRefresh,
		"iat":  now.Unix(),
		"exp":  now.Add(i.refreshTTL).Unix(),
	})
}
