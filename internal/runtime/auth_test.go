package runtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wendylzh6/youtube-chat-ai/config"
)

func TestLoadJWTSecret(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "from-config"
	secret, err := LoadJWTSecret(cfg)
	if err != nil || string(secret) != "from-config" {
		t.Fatalf("unexpected: %q %v", secret, err)
	}

	cfg.Server.JWTSecret = ""
	t.Setenv("YTCHAT_JWT_SECRET", "from-env")
	secret, err = LoadJWTSecret(cfg)
	if err != nil || string(secret) != "from-env" {
		t.Fatalf("unexpected: %q %v", secret, err)
	}

	t.Setenv("YTCHAT_JWT_SECRET", "")
	if _, err := LoadJWTSecret(cfg); err == nil {
		t.Fatalf("expected error when secret unset")
	}
}

func authTestHandler(t *testing.T, secret []byte, decorate func(*http.Request)) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	next := func(c echo.Context) error {
		sub, _ := c.Get("user_id").(string)
		return c.String(http.StatusOK, sub)
	}
	return rec, EchoAuthMiddleware(secret)(next)(c)
}

func TestEchoAuthMiddleware_BearerToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignJWT("user-123", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec, err := authTestHandler(t, secret, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "user-123" {
		t.Fatalf("expected subject in context, got %q", rec.Body.String())
	}
}

func TestEchoAuthMiddleware_Cookie(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignJWT("user-456", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec, err := authTestHandler(t, secret, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "auth", Value: token})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "user-456" {
		t.Fatalf("expected subject in context, got %q", rec.Body.String())
	}
}

func TestEchoAuthMiddleware_Rejections(t *testing.T) {
	secret := []byte("test-secret")
	expired, err := SignJWT("user-789", secret, -time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	wrongKey, err := SignJWT("user-789", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		name     string
		decorate func(*http.Request)
	}{
		{"no token", func(r *http.Request) {}},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }},
		{"wrong key", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+wrongKey) }},
	}
	for _, c := range cases {
		_, err := authTestHandler(t, secret, c.decorate)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %v", c.name, err)
		}
	}
}

func TestSubjectFromContext(t *testing.T) {
	ctx := ContextWithSubject(t.Context(), "user-1")
	sub, ok := SubjectFromContext(ctx)
	if !ok || sub != "user-1" {
		t.Fatalf("unexpected subject %q %v", sub, ok)
	}
	if _, ok := SubjectFromContext(t.Context()); ok {
		t.Fatalf("expected no subject on bare context")
	}
}
