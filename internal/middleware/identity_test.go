package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestIdentityMiddleware_InjectsUserID はヘッダーの利用者IDが
// コンテキストに注入されることを検証する。
func TestIdentityMiddleware_InjectsUserID(t *testing.T) {
	var gotUserID int64
	var gotErr error

	handler := NewIdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotErr = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set(SharerUserIDHeader, "42")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	if gotUserID != 42 {
		t.Errorf("userID = %d, want 42", gotUserID)
	}
}

// TestIdentityMiddleware_MissingHeaderPassesThrough はヘッダーなしの
// リクエストが通過し、コンテキストに利用者IDがないことを検証する。
func TestIdentityMiddleware_MissingHeaderPassesThrough(t *testing.T) {
	called := false
	handler := NewIdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, err := UserIDFromContext(r.Context()); err == nil {
			t.Error("expected no user ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("expected handler to be called")
	}
}

// TestIdentityMiddleware_InvalidHeader は数値でないヘッダーが400になることを検証する。
func TestIdentityMiddleware_InvalidHeader(t *testing.T) {
	handler := NewIdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	for _, value := range []string{"abc", "-1", "0", "1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set(SharerUserIDHeader, value)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("header %q: status = %d, want 400", value, w.Result().StatusCode)
		}
	}
}

// TestUserIDFromContext_Empty は空のコンテキストでエラーになることを検証する。
func TestUserIDFromContext_Empty(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
}

// TestContextWithUserID は注入と取得の往復を検証する。
func TestContextWithUserID(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), 7)
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != 7 {
		t.Errorf("userID = %d, want 7", userID)
	}
}
