package hospital

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

// RegisterRoutes mounts public hospital reads and admin-only management.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.GET("/hospitals", h.ListHospitals)
	public.GET("/hospitals/:id", h.GetHospital)
	public.GET("/hospitals/:id/resources", h.ListResources)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/hospitals", h.CreateHospital)
	admin.PUT("/hospitals/:id", h.UpdateHospital)
	admin.POST("/hospitals/:id/resources", h.CreateResource)
	admin.POST("/resources/:id/adjust", h.AdjustAvailability)
	admin.PUT("/resources/:id/capacity", h.SetCapacity)
	admin.GET("/hospitals/:id/staff", h.ListStaff)
	admin.POST("/hospitals/:id/staff", h.CreateStaff)
	admin.PUT("/staff/:id", h.UpdateStaff)
	admin.DELETE("/staff/:id", h.DeleteStaff)
	admin.GET("/hospitals/:id/ambulances", h.ListAmbulances)
	admin.POST("/hospitals/:id/ambulances", h.CreateAmbulance)
	admin.PUT("/ambulances/:id", h.UpdateAmbulance)
	admin.POST("/ambulances/:id/status", h.SetAmbulanceStatus)
}

func (h *Handler) ListHospitals(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListHospitals(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetHospital(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hp, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusOK, hp)
}

func (h *Handler) CreateHospital(c echo.Context) error {
	var hp Hospital
	if err := c.Bind(&hp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if hp.Name == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "name is required")
	}
	if err := h.svc.CreateHospital(c.Request().Context(), &hp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, hp)
}

func (h *Handler) UpdateHospital(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var hp Hospital
	if err := c.Bind(&hp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hp.ID = id
	if err := h.svc.UpdateHospital(c.Request().Context(), &hp); err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusOK, hp)
}

func (h *Handler) ListResources(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListResources(c.Request().Context(), hospitalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Resource{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateResource(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var res Resource
	if err := c.Bind(&res); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res.HospitalID = hospitalID
	if err := h.svc.CreateResource(c.Request().Context(), &res); err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) AdjustAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req adjustRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.AdjustAvailability(c.Request().Context(), id, req.Delta)
	if err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusOK, res)
}

type capacityRequest struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

func (h *Handler) SetCapacity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req capacityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.SetResourceCapacity(c.Request().Context(), id, req.Total, req.Available)
	if err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListStaff(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListStaff(c.Request().Context(), hospitalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*StaffMember{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateStaff(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m StaffMember
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.HospitalID = hospitalID
	if m.FullName == "" || m.Role == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "full_name and role are required")
	}
	if err := h.svc.CreateStaff(c.Request().Context(), &m); err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateStaff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m StaffMember
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateStaff(c.Request().Context(), &m); err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteStaff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteStaff(c.Request().Context(), id); err != nil {
		return hospitalError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAmbulances(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListAmbulances(c.Request().Context(), hospitalID, c.QueryParam("status"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if items == nil {
		items = []*Ambulance{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateAmbulance(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var a Ambulance
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.HospitalID = hospitalID
	if a.VehicleNumber == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "vehicle_number is required")
	}
	if err := h.svc.CreateAmbulance(c.Request().Context(), &a); err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateAmbulance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var a Ambulance
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.UpdateAmbulance(c.Request().Context(), &a); err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type ambulanceStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetAmbulanceStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req ambulanceStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.SetAmbulanceStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return hospitalError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func hospitalError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ErrUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
