// README: Tests for Firebase auth middleware and staff role checks.
package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"autorent/internal/http/middleware"
	"autorent/internal/infra"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	token *infra.StaffToken
	err   error
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.StaffToken, error) {
	return s.token, s.err
}

func newTestRouter(verifier infra.TokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{middleware.Auth(verifier)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": middleware.CallerUID(c), "role": middleware.CallerRole(c)})
	})
	r.GET("/test", handlers...)
	return r
}

func get(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingHeader(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.StaffToken{UID: "user1"}})
	if w := get(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_InvalidBearerPrefix(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.StaffToken{UID: "user1"}})
	if w := get(r, "Token sometoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_VerifierError(t *testing.T) {
	r := newTestRouter(&stubVerifier{err: errors.New("bad token")})
	if w := get(r, "Bearer invalidtoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_DisabledVerifier(t *testing.T) {
	verifier, err := infra.NewFirebaseVerifier(context.Background(), "", "")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	r := newTestRouter(verifier)
	if w := get(r, "Bearer anything"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidToken_UIDAndRolePopulated(t *testing.T) {
	token := &infra.StaffToken{
		UID:    "staff123",
		Claims: map[string]interface{}{"role": "staff"},
	}
	r := newTestRouter(&stubVerifier{token: token}, middleware.RequireRole(middleware.RoleStaff))
	w := get(r, "Bearer validtoken")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "staff123") {
		t.Errorf("expected uid staff123 in body, got %s", body)
	}
	if !strings.Contains(body, `"role":"staff"`) {
		t.Errorf("expected role staff in body, got %s", body)
	}
}

func TestRequireRole_RejectsOtherRoles(t *testing.T) {
	for _, claims := range []map[string]interface{}{
		{},
		{"role": "customer"},
		{"role": 42},
	} {
		token := &infra.StaffToken{UID: "u1", Claims: claims}
		r := newTestRouter(&stubVerifier{token: token}, middleware.RequireRole(middleware.RoleStaff))
		if w := get(r, "Bearer validtoken"); w.Code != http.StatusForbidden {
			t.Errorf("claims %v: expected 403, got %d", claims, w.Code)
		}
	}
}

func TestRecovery_PanicBecomes500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger))
	r.GET("/boom", func(*gin.Context) { panic("pricing: subtotal read before the base price was set") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "request panicked") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestLogging_WritesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(middleware.Logging(zerolog.New(&buf)))
	r.GET("/missing/:id", func(c *gin.Context) {
		_ = c.Error(errors.New("vehicle not found"))
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing/9", nil))
	out := buf.String()
	for _, want := range []string{`"status":404`, `"path":"/missing/:id"`, `"level":"warn"`, "vehicle not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}
