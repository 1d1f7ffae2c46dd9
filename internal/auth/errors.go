package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike,
	// so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers every decode failure: bad signature, corrupt
	// structure, expiry, wrong token type, missing subject.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMalformedHash marks a stored password hash that bcrypt cannot parse.
	ErrMalformedHash = errors.New("malformed password hash")
)
