package auth

import (
	"context"
	"testing"
	"time"

	"github.com/spacestar-shop/backend/pkg/config"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type stubAdminRepo struct {
	admin *Admin
}

func (s *stubAdminRepo) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	if s.admin == nil || s.admin.Email != email {
		return nil, mongo.ErrNoDocuments
	}
	return s.admin, nil
}

func (s *stubAdminRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Admin, error) {
	if s.admin == nil || s.admin.ID != id {
		return nil, mongo.ErrNoDocuments
	}
	return s.admin, nil
}

func (s *stubAdminRepo) Insert(ctx context.Context, admin *Admin) error {
	if admin.ID.IsZero() {
		admin.ID = primitive.NewObjectID()
	}
	s.admin = admin
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "spacestar", ExpirationMinutes: 60}
}

func testPasswordCfg() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, testJWTConfig(), testPasswordCfg())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterLoginVerifyRoundtrip(t *testing.T) {
	t.Parallel()

	repo := &stubAdminRepo{}
	svc := newTestService(t, repo)

	admin, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ops",
		Email:    "Ops@SpaceStar.example",
		Password: "orbit-7-secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if admin.Email != "ops@spacestar.example" {
		t.Fatalf("email must be normalized, got %q", admin.Email)
	}
	if admin.PasswordHash == "orbit-7-secret" {
		t.Fatal("password must not be stored in plain text")
	}

	loggedIn, token, err := svc.Login(context.Background(), "ops@spacestar.example", "orbit-7-secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != admin.ID {
		t.Fatalf("unexpected admin %s", loggedIn.ID.Hex())
	}

	subject, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != admin.ID.Hex() {
		t.Fatalf("expected subject %s, got %s", admin.ID.Hex(), subject)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()

	repo := &stubAdminRepo{}
	svc := newTestService(t, repo)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "ops@spacestar.example", Password: "orbit-7-secret"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "ops@spacestar.example", "wrong-password")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmailIsIndistinguishable(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubAdminRepo{})

	_, _, err := svc.Login(context.Background(), "nobody@spacestar.example", "whatever-pass")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != "invalid email or password" {
		t.Fatalf("message must not reveal which field failed, got %q", typed.Message())
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := &stubAdminRepo{}
	svc := newTestService(t, repo)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "ops@spacestar.example", Password: "orbit-7-secret"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(context.Background(), RegisterInput{Email: "OPS@spacestar.example", Password: "another-secret"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubAdminRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{Email: "ops@spacestar.example", Password: "short"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyTokenRejectsForeignSecret(t *testing.T) {
	t.Parallel()

	repo := &stubAdminRepo{}
	issuing := newTestService(t, repo)

	if _, err := issuing.Register(context.Background(), RegisterInput{Email: "ops@spacestar.example", Password: "orbit-7-secret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, token, err := issuing.Login(context.Background(), "ops@spacestar.example", "orbit-7-secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	otherCfg := testJWTConfig()
	otherCfg.Secret = "different-secret"
	verifying, err := NewService(repo, otherCfg, testPasswordCfg())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = verifying.VerifyToken(token)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSessionTTLFollowsConfig(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubAdminRepo{})
	if got := svc.SessionTTL(); got != time.Hour {
		t.Fatalf("expected 1h session, got %v", got)
	}
}
