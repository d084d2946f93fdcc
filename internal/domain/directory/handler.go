package directory

import (
	"errors"
	"net/http"

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

// RegisterRoutes mounts public search endpoints and authenticated slot
// management.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.GET("/doctors", h.Search)
	public.GET("/doctors/:id", h.GetDoctor)
	public.GET("/doctors/:id/slots", h.ListSlots)

	manage := api.Group("", auth.RequireRole("doctor", "admin"))
	manage.POST("/doctors", h.CreateDoctor)
	manage.PUT("/doctors/:id", h.UpdateDoctor)
	manage.POST("/slots", h.CreateSlot)
	manage.PUT("/slots/:id", h.UpdateSlot)
	manage.DELETE("/slots/:id", h.DeleteSlot)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := SearchParams{
		Specialty: c.QueryParam("specialty"),
		Name:      c.QueryParam("name"),
	}
	if hid := c.QueryParam("hospital_id"); hid != "" {
		id, err := uuid.Parse(hid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
		}
		params.HospitalID = &id
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	ctx := c.Request().Context()
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Doctors create their own profile; admins may create for any user.
	if auth.RoleFromContext(ctx) != "admin" {
		d.UserID = auth.UserIDFromContext(ctx)
	}
	if err := h.svc.CreateDoctor(ctx, &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	existing, err := h.svc.GetDoctor(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if auth.RoleFromContext(ctx) != "admin" && existing.UserID != auth.UserIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "not your profile")
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	d.UserID = existing.UserID
	if err := h.svc.UpdateDoctor(ctx, &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListSlots(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateSlot(c echo.Context) error {
	ctx := c.Request().Context()
	var sl AvailabilitySlot
	if err := c.Bind(&sl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.CreateSlot(ctx, &sl, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx) == "admin")
	if err != nil {
		return slotError(err)
	}
	return c.JSON(http.StatusCreated, sl)
}

func (h *Handler) UpdateSlot(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var sl AvailabilitySlot
	if err := c.Bind(&sl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sl.ID = id
	err = h.svc.UpdateSlot(ctx, &sl, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx) == "admin")
	if err != nil {
		return slotError(err)
	}
	return c.JSON(http.StatusOK, sl)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err = h.svc.DeleteSlot(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx) == "admin")
	if err != nil {
		return slotError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func slotError(err error) error {
	switch {
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not the owning doctor")
	case errors.Is(err, ErrNoSlot), errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
