package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the verified content of a decoded token.
type Claims struct {
	Subject   string
	Username  string
	Type      string
	ExpiresAt time.Time
}

// Codec signs and verifies JWTs with a process-wide HMAC key. It is immutable
// after construction and safe for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

func NewCodec(secret string, algorithm string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret is required")
	}

	method := jwt.GetSigningMethod(strings.ToUpper(strings.TrimSpace(algorithm)))
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not in the HMAC family", algorithm)
	}

	return &Codec{secret: []byte(secret), method: method}, nil
}

func (c *Codec) Encode(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Decode verifies signature, structure and expiry, and optionally the "type"
// claim. Every failure collapses into ErrInvalidToken; callers cannot
// distinguish expired from tampered from wrong-type.
func (c *Codec) Decode(tokenString string, expectedType string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.method.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	typ, _ := claimsMap["type"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, ErrInvalidToken
	}

	sub, _ := claimsMap["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{Subject: sub, Type: typ}
	claims.Username, _ = claimsMap["username"].(string)
	if exp, expErr := claimsMap.GetExpirationTime(); expErr == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}
