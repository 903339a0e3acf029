package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mealforge/mealforge/internal/config"
	"github.com/mealforge/mealforge/internal/userctx"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:           "local",
		AuthMode:      "dev",
		AuthEnabled:   true,
		AuthRequired:  true,
		JWTSecret:     "test_secret",
		JWTIssuer:     "mealforge",
		JWTTTLMinutes: 60,
	}
}

func TestHandleDevAuth(t *testing.T) {
	svc := NewService(testConfig())
	handlers := NewHandlers(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil)
	rec := httptest.NewRecorder()

	handlers.HandleDevAuth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp DevAuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected non-empty access_token")
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected token_type=Bearer, got %s", resp.TokenType)
	}

	sub, err := svc.VerifyJWT(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if sub != "dev-user" {
		t.Fatalf("expected sub=dev-user, got %s", sub)
	}
}

func TestVerifyJWTRejectsGarbage(t *testing.T) {
	svc := NewService(testConfig())

	if _, err := svc.VerifyJWT("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestVerifyJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewService(testConfig())
	resp, err := issuer.SignInDev(nil)
	if err != nil {
		t.Fatalf("failed to sign in: %v", err)
	}

	otherCfg := testConfig()
	otherCfg.JWTSecret = "different_secret"
	verifier := NewService(otherCfg)

	if _, err := verifier.VerifyJWT(resp.AccessToken); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	svc := NewService(cfg)
	mw := NewMiddleware(cfg, svc)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userctx.GetUserID(r.Context())
		if !ok {
			t.Error("expected user id in context")
		}
		if userID != "dev-user" {
			t.Errorf("expected dev-user, got %s", userID)
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/plans/week", nil)
		rec := httptest.NewRecorder()

		mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler should not run")
		})).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid token passes", func(t *testing.T) {
		resp, err := svc.SignInDev(nil)
		if err != nil {
			t.Fatalf("failed to sign in: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/plans/week", nil)
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
		rec := httptest.NewRecorder()

		mw.RequireAuth(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("auth endpoints stay public", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil)
		rec := httptest.NewRecorder()

		mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
