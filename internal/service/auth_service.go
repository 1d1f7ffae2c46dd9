package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-auth-service/internal/auth"
	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

// AuthService wires the token/credential core to the user store and exposes
// the operations the handlers consume.
type AuthService struct {
	store         userStore
	codec         *auth.Codec
	issuer        *auth.Issuer
	authenticator *auth.Authenticator
	refresher     *auth.Refresher
}

func NewAuthService(jwtSecret string, jwtAlgorithm string, accessTTL time.Duration, refreshTTL time.Duration, store userStore) (*AuthService, error) {
	codec, err := auth.NewCodec(jwtSecret, jwtAlgorithm)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(codec, accessTTL, refreshTTL)
	if err != nil {
		return nil, err
	}

	source := auth.CredentialSourceFunc(func(ctx context.Context, email string) (auth.Credential, bool, error) {
		user, err := store.FindByEmail(ctx, email)
		if errors.Is(err, model.ErrUserNotFound) {
			return auth.Credential{}, false, nil
		}
		if err != nil {
			return auth.Credential{}, false, err
		}
		return auth.Credential{Email: user.Email, Username: user.Username, PasswordHash: user.PasswordHash}, true, nil
	})

	return &AuthService{
		store:         store,
		codec:         codec,
		issuer:        issuer,
		authenticator: auth.NewAuthenticator(source),
		refresher:     auth.NewRefresher(codec, issuer, source),
	}, nil
}

func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (model.PublicUser, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return model.PublicUser{}, apierror.New("BAD_REQUEST", "username, email and password are required", "", http.StatusBadRequest)
	}

	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return model.PublicUser{}, err
	}
	if exists {
		return model.PublicUser{}, apierror.New("ALREADY_REGISTERED", "email already registered", "", http.StatusBadRequest)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.PublicUser{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		// The existence pre-check races with concurrent registrations and
		// only covers the email; the unique constraints on both columns are
		// the authority.
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.PublicUser{}, apierror.New("ALREADY_REGISTERED", "email or username already registered", "", http.StatusBadRequest)
		}
		return model.PublicUser{}, err
	}

	return model.PublicUser{Username: user.Username, Email: user.Email}, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	cred, err := s.authenticator.Authenticate(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return model.TokenPair{}, apierror.New("UNAUTHORIZED", "incorrect email or password", "", http.StatusUnauthorized)
		}
		return model.TokenPair{}, err
	}

	return s.issuer.IssuePair(auth.Identity{Email: cred.Email, Username: cred.Username})
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	pair, err := s.refresher.Renew(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return model.TokenPair{}, apierror.New("UNAUTHORIZED", "invalid or expired refresh token", "", http.StatusUnauthorized)
		}
		return model.TokenPair{}, err
	}

	return pair, nil
}

// ValidateAccessToken is consumed by the bearer middleware.
func (s *AuthService) ValidateAccessToken(tokenString string) (*auth.Claims, error) {
	return s.codec.Decode(tokenString, auth.TokenTypeAccess)
}

func (s *AuthService) CurrentUser(ctx context.Context, email string) (model.PublicUser, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return model.PublicUser{}, err
	}

	return model.PublicUser{Username: user.Username, Email: user.Email}, nil
}
