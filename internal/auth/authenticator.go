package auth

import (
	"context"
	"errors"
	"log/slog"
)

// Credential is the stored identity a password is verified against. The core
// only reads it; the user store owns it.
type Credential struct {
	Email        string
	Username     string
	PasswordHash string
}

// CredentialSource looks up a stored credential by email. The second return
// value reports whether the credential exists; errors are reserved for lookup
// failures (store unreachable, query error).
type CredentialSource interface {
	FindByEmail(ctx context.Context, email string) (Credential, bool, error)
}

// CredentialSourceFunc adapts a plain function to CredentialSource.
type CredentialSourceFunc func(ctx context.Context, email string) (Credential, bool, error)

func (f CredentialSourceFunc) FindByEmail(ctx context.Context, email string) (Credential, bool, error) {
	return f(ctx, email)
}

// Authenticator verifies email+password pairs against a credential source.
type Authenticator struct {
	source CredentialSource
}

func NewAuthenticator(source CredentialSource) *Authenticator {
	return &Authenticator{source: source}
}

// Authenticate returns the stored credential on a match. An unknown email and
// a wrong password both fail with ErrInvalidCredentials. A malformed stored
// hash also fails that way, but is logged as a data-integrity signal.
func (a *Authenticator) Authenticate(ctx context.Context, email string, password string) (Credential, error) {
	cred, found, err := a.source.FindByEmail(ctx, email)
	if err != nil {
		return Credential{}, err
	}
	if !found {
		return Credential{}, ErrInvalidCredentials
	}

	if err := CheckPassword(password, cred.PasswordHash); err != nil {
		if errors.Is(err, ErrMalformedHash) {
			slog.Warn("stored password hash is unreadable", "email", email)
		}
		return Credential{}, ErrInvalidCredentials
	}

	return cred, nil
}
