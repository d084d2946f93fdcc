package appointment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediconnect/api/internal/platform/auth"
	"github.com/mediconnect/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book, auth.RequireRole("patient"))
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.POST("/appointments/:id/accept", h.Accept, auth.RequireRole("doctor", "admin"))
	api.POST("/appointments/:id/reject", h.Reject, auth.RequireRole("doctor", "admin"))
	api.POST("/appointments/:id/cancel", h.Cancel)
}

func (h *Handler) Book(c echo.Context) error {
	ctx := c.Request().Context()
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := h.svc.Book(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return apptError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// List returns the caller's appointments: patients see their own history,
// doctors a day sheet for one date.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)
	status := c.QueryParam("status")

	switch auth.RoleFromContext(ctx) {
	case "doctor", "admin":
		doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
		if err != nil {
			doctorID, err = h.svc.directory.DoctorIDForUser(ctx, auth.UserIDFromContext(ctx))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
			}
		}
		dateStr := c.QueryParam("date")
		if dateStr == "" {
			dateStr = time.Now().Format(DateLayout)
		}
		date, err := time.Parse(DateLayout, dateStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		}
		items, total, err := h.svc.ListByDoctorDate(ctx, doctorID, date, status, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	default:
		items, total, err := h.svc.ListByPatient(ctx, auth.UserIDFromContext(ctx), status, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
}

func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return apptError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Accept(c echo.Context) error {
	return h.transition(c, h.svc.Accept)
}

func (h *Handler) Reject(c echo.Context) error {
	return h.transition(c, h.svc.Reject)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id, callerUserID uuid.UUID, role string) (*Appointment, error)) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := fn(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return apptError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func apptError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrStaleTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
}
