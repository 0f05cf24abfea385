package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
)

type stubVerifier struct {
	adminID string
	err     error

	seen string
}

func (s *stubVerifier) VerifyToken(token string) (string, error) {
	s.seen = token
	if s.err != nil {
		return "", s.err
	}
	return s.adminID, nil
}

func TestAdminAuthSeedsContext(t *testing.T) {
	verifier := &stubVerifier{adminID: "abc123"}
	var gotAdminID string
	handler := AdminAuth(verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdminID = AdminIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if verifier.seen != "token-1" {
		t.Fatalf("expected cookie value to reach verifier, got %q", verifier.seen)
	}
	if gotAdminID != "abc123" {
		t.Fatalf("expected admin id in context, got %q", gotAdminID)
	}
}

func TestAdminAuthRejectsMissingCookie(t *testing.T) {
	handler := AdminAuth(&stubVerifier{adminID: "abc123"}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminAuthRejectsInvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session token")}
	handler := AdminAuth(verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
