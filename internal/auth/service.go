package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spacestar-shop/backend/pkg/config"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"github.com/spacestar-shop/backend/pkg/security"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Service handles admin authentication. Sessions are stateless JWTs carried
// in an HttpOnly cookie; VerifyToken backs the admin middleware.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Admin, error)
	// Login verifies the credentials and returns the admin together with a
	// signed session token.
	Login(ctx context.Context, email, password string) (*Admin, string, error)
	Me(ctx context.Context, adminID string) (*Admin, error)
	// VerifyToken validates a session token and returns the admin id it was
	// issued for.
	VerifyToken(token string) (string, error)
	SessionTTL() time.Duration
}

type service struct {
	repo        Repository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

func NewService(repo Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{repo: repo, jwtCfg: jwtCfg, passwordCfg: passwordCfg}, nil
}

// RegisterInput is the payload for a new admin account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Admin, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an admin with this email already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "look up admin")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	admin := &Admin{Name: input.Name, Email: email, PasswordHash: hash}
	if err := s.repo.Insert(ctx, admin); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create admin")
	}
	return admin, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*Admin, string, error) {
	admin, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeStore, err, "look up admin")
	}

	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.issueToken(admin.ID.Hex())
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

func (s *service) Me(ctx context.Context, adminID string) (*Admin, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(adminID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session subject")
	}

	admin, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load admin")
	}
	return admin, nil
}

func (s *service) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	}, jwt.WithIssuer(s.jwtCfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session token")
	}
	return claims.Subject, nil
}

func (s *service) SessionTTL() time.Duration {
	return s.jwtCfg.Expiration()
}

func (s *service) issueToken(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.jwtCfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.Expiration())),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign session token")
	}
	return signed, nil
}
