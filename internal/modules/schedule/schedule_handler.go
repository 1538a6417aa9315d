package schedule

import (
	"errors"
	"net/http"
	"time"

	"booking-and-scheduling/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes the admin calendar endpoints. Role enforcement happens in
// the admin group middleware; handlers only bind, validate and map errors.
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

// RegisterRoutes mounts the override CRUD under the admin group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/overrides", h.ListOverrides)
	g.POST("/overrides", h.CreateOverride)
	g.DELETE("/overrides/:overrideId", h.DeleteOverride)
}

// ListOverrides returns overrides intersecting ?from=YYYY-MM-DD&to=YYYY-MM-DD
// (defaults to the next 90 days).
func (h *Handler) ListOverrides(c echo.Context) error {
	ctx := c.Request().Context()

	from := time.Now()
	to := from.AddDate(0, 0, 90)
	if v := c.QueryParam("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "from must be YYYY-MM-DD"})
		}
		from = parsed
	}
	if v := c.QueryParam("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "to must be YYYY-MM-DD"})
		}
		to = parsed
	}

	overrides, err := h.svc.ActiveOverrides(ctx, from, to)
	if err != nil {
		c.Logger().Error("Handler.ListOverrides: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to list overrides"})
	}
	return c.JSON(http.StatusOK, overrides)
}

// CreateOverride records a holiday closure or a modified-hours day.
func (h *Handler) CreateOverride(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CreateOverrideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "validation failed: " + err.Error()})
	}

	override, err := h.svc.CreateOverride(ctx, req)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: ve.Error()})
		}
		c.Logger().Error("Handler.CreateOverride: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to create override"})
	}
	return c.JSON(http.StatusCreated, override)
}

// DeleteOverride removes an override by id.
func (h *Handler) DeleteOverride(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.svc.DeleteOverride(ctx, c.Param("overrideId")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "override not found"})
		}
		c.Logger().Error("Handler.DeleteOverride: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to delete override"})
	}
	return c.NoContent(http.StatusNoContent)
}
