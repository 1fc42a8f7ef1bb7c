package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/parcel-notify/internal/domain"
	jwtinfra "github.com/parcel-notify/internal/infrastructure/jwt"
)

// ErrSessionsDisabled is returned by Login when no signing secret is configured.
var ErrSessionsDisabled = errors.New("admin sessions are disabled")

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer    string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service authenticates the single admin account that guards use.
type Service interface {
	CheckCredentials(username, password string) bool
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	VerifyBearer(token string) (*jwtinfra.Claims, error)
	SessionsEnabled() bool
}

type tokenProvider interface {
	Sign(subject, role string) (string, time.Time, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type ServiceDeps struct {
	Username string
	Password string         // plain text, or a bcrypt hash when it starts with "$2"
	Tokens   tokenProvider // nil disables Login and VerifyBearer
	Log      *zap.Logger
}

type service struct {
	username string
	password string
	hashed   bool
	tokens   tokenProvider
	log      *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		username: deps.Username,
		password: deps.Password,
		hashed:   strings.HasPrefix(deps.Password, "$2"),
		tokens:   deps.Tokens,
		log:      deps.Log,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *service) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	var passOK bool
	if s.hashed {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	}
	return userOK && passOK
}

func (s *service) Login(_ context.Context, req LoginRequest) (*LoginResult, error) {
	if s.tokens == nil {
		return nil, ErrSessionsDisabled
	}
	if !s.CheckCredentials(req.Username, req.Password) {
		s.log.Warn("admin login rejected", zap.String("username", req.Username))
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	bearer, exp, err := s.tokens.Sign(req.Username, jwtinfra.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Bearer: bearer, ExpiresAt: exp}, nil
}

func (s *service) VerifyBearer(token string) (*jwtinfra.Claims, error) {
	if s.tokens == nil {
		return nil, ErrSessionsDisabled
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrUnauthorized)
	}
	if claims.Role != jwtinfra.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return claims, nil
}

func (s *service) SessionsEnabled() bool { return s.tokens != nil }
