package queue

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediconnect/api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/queue")
	g.GET("/dates", h.Dates, auth.RequireRole("doctor", "admin"))
	g.GET("/my-position", h.MyPosition, auth.RequireRole("patient"))
	g.GET("/patient/:appointmentId", h.PositionFor)
	g.POST("/next", h.CallNext, auth.RequireRole("doctor", "admin"))
	g.POST("/reset", h.Reset, auth.RequireRole("doctor", "admin"))
	g.GET("/:date", h.DayView, auth.RequireRole("doctor", "admin"))
}

// resolveDoctorID maps the caller to a doctor profile. Doctors act on their
// own queue; admins must name one. A doctor naming someone else's queue is
// rejected.
func (h *Handler) resolveDoctorID(c echo.Context, supplied string) (uuid.UUID, error) {
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == "admin" {
		id, err := uuid.Parse(supplied)
		if err != nil {
			return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
		}
		return id, nil
	}

	own, err := h.svc.DoctorForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "no doctor profile for this account")
	}
	if supplied != "" {
		id, err := uuid.Parse(supplied)
		if err != nil {
			return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		if id != own {
			return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "not your queue")
		}
	}
	return own, nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, raw)
}

func (h *Handler) DayView(c echo.Context) error {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}
	doctorID, err := h.resolveDoctorID(c, c.QueryParam("doctor_id"))
	if err != nil {
		return err
	}
	entries, err := h.svc.DayView(c.Request().Context(), doctorID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) Dates(c echo.Context) error {
	doctorID, err := h.resolveDoctorID(c, c.QueryParam("doctor_id"))
	if err != nil {
		return err
	}
	summaries, err := h.svc.Dates(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if summaries == nil {
		summaries = []*DateSummary{}
	}
	return c.JSON(http.StatusOK, summaries)
}

type callNextRequest struct {
	DoctorID             string `json:"doctor_id"`
	Date                 string `json:"date"`
	CurrentAppointmentID string `json:"current_appointment_id"`
}

func (h *Handler) CallNext(c echo.Context) error {
	var req callNextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}
	doctorID, err := h.resolveDoctorID(c, req.DoctorID)
	if err != nil {
		return err
	}
	currentID := uuid.Nil
	if req.CurrentAppointmentID != "" {
		currentID, err = uuid.Parse(req.CurrentAppointmentID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid current_appointment_id")
		}
	}

	result, err := h.svc.CallNext(c.Request().Context(), doctorID, date, currentID)
	if err != nil {
		return queueError(err)
	}
	return c.JSON(http.StatusOK, result)
}

type resetRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
}

func (h *Handler) Reset(c echo.Context) error {
	ctx := c.Request().Context()
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}
	doctorID, err := h.resolveDoctorID(c, req.DoctorID)
	if err != nil {
		return err
	}

	affected, err := h.svc.Reset(ctx, doctorID, date, auth.UserIDFromContext(ctx))
	if err != nil {
		return queueError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"appointments_reset": affected})
}

func (h *Handler) MyPosition(c echo.Context) error {
	ctx := c.Request().Context()
	dateStr := c.QueryParam("date")
	if dateStr == "" {
		dateStr = time.Now().Format(DateLayout)
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}
	pos, err := h.svc.MyPosition(ctx, auth.UserIDFromContext(ctx), date)
	if err != nil {
		return queueError(err)
	}
	return c.JSON(http.StatusOK, pos)
}

func (h *Handler) PositionFor(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	pos, err := h.svc.PositionFor(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return queueError(err)
	}
	return c.JSON(http.StatusOK, pos)
}

func queueError(err error) error {
	switch {
	case errors.Is(err, ErrStaleState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
