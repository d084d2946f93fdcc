package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediconnect/api/internal/platform/auth"
	"github.com/mediconnect/api/internal/platform/validate"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validate.New()
	return e
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, uid uuid.UUID, role string) echo.Context {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, uid)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	c := e.NewContext(req.WithContext(ctx), rec)
	return c
}

func TestRegisterHandler(t *testing.T) {
	e := newTestEcho()
	svc, _ := newTestService()
	h := NewHandler(svc)

	body := `{"email":"rahim@example.com","password":"password123","full_name":"Rahim Uddin"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var u User
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if u.Role != RolePatient {
		t.Errorf("expected patient role, got %s", u.Role)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("response must not expose password hash")
	}
}

func TestRegisterHandler_ValidationFailure(t *testing.T) {
	e := newTestEcho()
	svc, _ := newTestService()
	h := NewHandler(svc)

	body := `{"email":"not-an-email","password":"short","full_name":""}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Register(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %v", err)
	}
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	e := newTestEcho()
	svc, _ := newTestService()
	h := NewHandler(svc)

	if _, err := svc.Register(context.Background(), "dup@example.com", "password123", "First", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := `{"email":"dup@example.com","password":"password123","full_name":"Second"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Register(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestLoginHandler(t *testing.T) {
	e := newTestEcho()
	svc, _ := newTestService()
	h := NewHandler(svc)

	if _, err := svc.Register(context.Background(), "rahim@example.com", "password123", "Rahim", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := `{"email":"rahim@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	e := newTestEcho()
	svc, _ := newTestService()
	h := NewHandler(svc)

	body := `{"email":"ghost@example.com","password":"whatever"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMeHandler(t *testing.T) {
	e := newTestEcho()
	svc, _ := newTestService()
	h := NewHandler(svc)

	u, err := svc.Register(context.Background(), "rahim@example.com", "password123", "Rahim", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, u.ID, RolePatient)

	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, got.ID)
	}
}
