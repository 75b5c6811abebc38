package routing

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes the routing endpoints: generation, listing, lifecycle
// updates, and reassignment.
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

// RegisterRoutes mounts the routing endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/routes/generate", h.Generate)
	g.GET("/routes", h.ListRoutes)
	g.GET("/routes/:routeId", h.GetRoute)
	g.PUT("/routes/:routeId/status", h.UpdateRouteStatus)
	g.PUT("/routes/:routeId/stops/:stopId/status", h.UpdateStopStatus)
	g.POST("/routes/:routeId/cancel", h.CancelRoute)
	g.POST("/routes/:routeId/reassign", h.ReassignOrder)
}

func (h *Handler) Generate(c echo.Context) error {
	var req models.GenerateRoutesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	result, err := h.svc.Generate(c.Request().Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
		case errors.Is(err, models.ErrDistanceProvider):
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Message: "distance provider unavailable"})
		case errors.Is(err, models.ErrConflict):
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to generate routes"})
		}
	}
	if result.AlreadyGenerated {
		return c.JSON(http.StatusOK, result)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListRoutes(c echo.Context) error {
	var filter RouteFilter
	if raw := c.QueryParam("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "date must be YYYY-MM-DD"})
		}
		filter.Date = &date
	}
	filter.Status = c.QueryParam("status")
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "limit must be a non-negative integer"})
		}
		filter.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "offset must be a non-negative integer"})
		}
		filter.Offset = offset
	}

	routes, err := h.svc.ListRoutes(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to list routes"})
	}
	return c.JSON(http.StatusOK, routes)
}

func (h *Handler) GetRoute(c echo.Context) error {
	route, err := h.svc.GetRoute(c.Request().Context(), c.Param("routeId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to get route"})
	}
	return c.JSON(http.StatusOK, route)
}

func (h *Handler) UpdateRouteStatus(c echo.Context) error {
	var req models.RouteStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	route, err := h.svc.UpdateRouteStatus(c.Request().Context(), c.Param("routeId"), req.Status)
	if err != nil {
		return routingError(c, err, "failed to update route status")
	}
	return c.JSON(http.StatusOK, route)
}

func (h *Handler) UpdateStopStatus(c echo.Context) error {
	var req models.StopStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	stop, err := h.svc.UpdateStopStatus(c.Request().Context(), c.Param("routeId"), c.Param("stopId"), req.Status)
	if err != nil {
		return routingError(c, err, "failed to update stop status")
	}
	return c.JSON(http.StatusOK, stop)
}

func (h *Handler) CancelRoute(c echo.Context) error {
	var body struct {
		Reason string `json:"reason"`
	}
	// Body is optional; an empty reason is fine.
	_ = c.Bind(&body)

	route, err := h.svc.CancelRoute(c.Request().Context(), c.Param("routeId"), body.Reason)
	if err != nil {
		return routingError(c, err, "failed to cancel route")
	}
	return c.JSON(http.StatusOK, route)
}

func (h *Handler) ReassignOrder(c echo.Context) error {
	var req models.ReassignOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	route, err := h.svc.ReassignOrder(c.Request().Context(), c.Param("routeId"), &req)
	if err != nil {
		return routingError(c, err, "failed to reassign order")
	}
	return c.JSON(http.StatusOK, route)
}

// routingError maps domain errors to status codes shared by the lifecycle and
// reassignment endpoints.
func routingError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "not found"})
	case errors.Is(err, models.ErrValidation):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	case errors.Is(err, models.ErrRouteTerminal),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrConflict):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: fallback})
	}
}
