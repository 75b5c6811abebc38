package fleet

import (
	"errors"
	"net/http"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes the fleet endpoints: listing, detail, and the
// administrative availability overrides.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the fleet endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/fleet", h.ListVehicles)
	g.GET("/fleet/available", h.ListAvailable)
	g.GET("/fleet/:vehicleId", h.GetVehicle)
	g.PUT("/fleet/:vehicleId/availability", h.SetAvailability)
}

func (h *Handler) ListVehicles(c echo.Context) error {
	vehicles, err := h.svc.ListVehicles(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to list vehicles"})
	}
	return c.JSON(http.StatusOK, vehicles)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	vehicles, err := h.svc.ListAvailableVehicles(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to list available vehicles"})
	}
	return c.JSON(http.StatusOK, vehicles)
}

func (h *Handler) GetVehicle(c echo.Context) error {
	vehicle, err := h.svc.GetVehicle(c.Request().Context(), c.Param("vehicleId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to get vehicle"})
	}
	return c.JSON(http.StatusOK, vehicle)
}

func (h *Handler) SetAvailability(c echo.Context) error {
	var req models.VehicleAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	err := h.svc.SetAvailability(c.Request().Context(), c.Param("vehicleId"), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "vehicle not found"})
		case errors.Is(err, models.ErrValidation):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to update availability"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
