package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/todoman/internal/model"
)

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	return m.authenticateFn(ctx, token)
}

func newAuthHandler(t *testing.T, authn UserAuthenticator, called *bool) http.Handler {
	t.Helper()
	return NewBearerAuthMiddleware(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext returned error: %v", err)
		}
		user, err := UserFromContext(r.Context())
		if err != nil {
			t.Errorf("UserFromContext returned error: %v", err)
		}
		if user != nil && user.ID != userID {
			t.Errorf("user.ID = %q, userID = %q", user.ID, userID)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestBearerAuthMiddleware_ValidToken(t *testing.T) {
	var gotToken string
	authn := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string) (*model.User, error) {
			gotToken = token
			return &model.User{ID: "user-1", Email: "a@b.com"}, nil
		},
	}
	called := false
	handler := newAuthHandler(t, authn, &called)

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	req.Header.Set("Authorization", "bearer tok-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Error("next handler should be called")
	}
	if gotToken != "tok-123" {
		t.Errorf("token = %q, want %q", gotToken, "tok-123")
	}
}

func TestBearerAuthMiddleware_RejectsMissingOrMalformedHeader(t *testing.T) {
	authn := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string) (*model.User, error) {
			t.Fatal("authenticator must not be called")
			return nil, nil
		},
	}

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcjpwYXNz", "tok-123"} {
		t.Run(header, func(t *testing.T) {
			called := false
			handler := newAuthHandler(t, authn, &called)

			req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
			}
			if called {
				t.Error("next handler must not be called")
			}
		})
	}
}

func TestBearerAuthMiddleware_InvalidToken(t *testing.T) {
	authn := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string) (*model.User, error) {
			return nil, model.NewUnauthorizedError()
		},
	}
	called := false
	handler := newAuthHandler(t, authn, &called)

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler must not be called")
	}
}

func TestBearerAuthMiddleware_BackendError(t *testing.T) {
	authn := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string) (*model.User, error) {
			return nil, errors.New("db down")
		},
	}
	called := false
	handler := newAuthHandler(t, authn, &called)

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if called {
		t.Error("next handler must not be called")
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for context without user ID")
	}
	if _, err := UserFromContext(context.Background()); err == nil {
		t.Error("expected error for context without user")
	}

	ctx := ContextWithUserID(context.Background(), "user-9")
	if got, err := UserIDFromContext(ctx); err != nil || got != "user-9" {
		t.Errorf("UserIDFromContext = (%q, %v), want user-9", got, err)
	}
}
