package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/purrfectmatch/api/internal/handler"
	"github.com/purrfectmatch/api/internal/repository/sqlite"
	"github.com/purrfectmatch/api/internal/service"
)

func newTestAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens := service.NewTokenService(service.TokenConfig{
		AccessSecret:       "test-access-secret-for-handler-tests",
		RefreshSecret:      "test-refresh-secret-for-handler-tests",
		VerificationSecret: "test-verification-secret-for-handler-tests",
	})
	files := service.NewFileService(db.FileStore())
	return service.NewAuthService(db.Users(), tokens, files, 4, "")
}

func TestRequireAuth_ValidToken(t *testing.T) {
	auth := newTestAuthService(t)
	ctx := context.Background()

	_, pair, err := auth.Register(ctx, "valid@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var gotEmail string
	inner := func(w http.ResponseWriter, r *http.Request) {
		if user := handler.UserFromContext(r.Context()); user != nil {
			gotEmail = user.Email
		}
		w.WriteHeader(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	w := httptest.NewRecorder()

	handler.RequireAuth(auth, inner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotEmail != "valid@example.com" {
		t.Fatalf("expected user valid@example.com, got %q", gotEmail)
	}
}

func TestRequireAuth_MissingOrBadToken(t *testing.T) {
	auth := newTestAuthService(t)

	inner := func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler must not run")
	}

	for _, header := range []string{"", "Bearer garbage", "Basic dXNlcg=="} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()

		handler.RequireAuth(auth, inner).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	auth := newTestAuthService(t)
	ctx := context.Background()

	user, pair, err := auth.Register(ctx, "valid@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := auth.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	inner := func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler must not run")
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	w := httptest.NewRecorder()

	handler.RequireAuth(auth, inner).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %d", w.Code)
	}
}

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	auth := newTestAuthService(t)

	sawRequest := false
	inner := func(w http.ResponseWriter, r *http.Request) {
		sawRequest = true
		if user := handler.UserFromContext(r.Context()); user != nil {
			t.Fatalf("expected anonymous request, got user %v", user.Email)
		}
		w.WriteHeader(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()

	handler.OptionalAuth(auth, inner).ServeHTTP(w, req)

	if !sawRequest {
		t.Fatal("expected inner handler to run")
	}
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestOptionalAuth_AttachesUser(t *testing.T) {
	auth := newTestAuthService(t)
	ctx := context.Background()

	_, pair, err := auth.Register(ctx, "valid@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var gotEmail string
	inner := func(w http.ResponseWriter, r *http.Request) {
		if user := handler.UserFromContext(r.Context()); user != nil {
			gotEmail = user.Email
		}
		w.WriteHeader(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	w := httptest.NewRecorder()

	handler.OptionalAuth(auth, inner).ServeHTTP(w, req)

	if gotEmail != "valid@example.com" {
		t.Fatalf("expected user valid@example.com, got %q", gotEmail)
	}
}
