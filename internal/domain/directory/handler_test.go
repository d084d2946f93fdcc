package directory

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
	"github.com/mediconnect/api/pkg/pagination"
)

func TestSearchHandler(t *testing.T) {
	e := echo.New()
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	seedDoctor(t, svc, "Dr. Karim", "Cardiology")
	seedDoctor(t, svc, "Dr. Nasrin", "Dermatology")

	req := httptest.NewRequest(http.MethodGet, "/doctors?specialty=derma", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp pagination.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 result, got %d", resp.Total)
	}
}

func TestGetDoctorHandler_NotFound(t *testing.T) {
	e := echo.New()
	svc, _, _ := newTestService()
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+uuid.NewString(), nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetDoctor(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestCreateSlotHandler_ForbiddenForStranger(t *testing.T) {
	e := echo.New()
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	d := seedDoctor(t, svc, "Dr. Karim", "Cardiology")

	body := `{"doctor_id":"` + d.ID.String() + `","weekday":1,"start_time":"09:00","end_time":"12:00","capacity":10}`
	req := httptest.NewRequest(http.MethodPost, "/slots", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	ctx := context.WithValue(req.Context(), auth.UserIDKey, uuid.New())
	ctx = context.WithValue(ctx, auth.UserRoleKey, "doctor")
	c := e.NewContext(req.WithContext(ctx), httptest.NewRecorder())

	err := h.CreateSlot(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestCreateSlotHandler_OwnerSucceeds(t *testing.T) {
	e := echo.New()
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	d := seedDoctor(t, svc, "Dr. Karim", "Cardiology")

	body := `{"doctor_id":"` + d.ID.String() + `","weekday":1,"start_time":"09:00","end_time":"12:00","capacity":10,"auto_confirm":true}`
	req := httptest.NewRequest(http.MethodPost, "/slots", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	ctx := context.WithValue(req.Context(), auth.UserIDKey, d.UserID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, "doctor")
	rec := httptest.NewRecorder()
	c := e.NewContext(req.WithContext(ctx), rec)

	if err := h.CreateSlot(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}
