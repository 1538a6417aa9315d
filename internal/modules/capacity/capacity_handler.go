package capacity

import (
	"errors"
	"net/http"
	"time"

	"booking-and-scheduling/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes the admin fleet and capacity block endpoints.
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

// RegisterRoutes mounts the fleet view and block CRUD under the admin group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/fleet", h.GetFleet)
	g.GET("/blocks", h.ListBlocks)
	g.POST("/blocks", h.CreateBlock)
	g.DELETE("/blocks/:blockId", h.DeleteBlock)
}

// GetFleet returns every vehicle with its capacity and active flag.
func (h *Handler) GetFleet(c echo.Context) error {
	ctx := c.Request().Context()
	vehicles, err := h.svc.ListFleet(ctx)
	if err != nil {
		c.Logger().Error("Handler.GetFleet: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to list fleet"})
	}
	return c.JSON(http.StatusOK, vehicles)
}

// ListBlocks returns capacity blocks overlapping ?from&to (RFC 3339, defaults
// to the next 30 days).
func (h *Handler) ListBlocks(c echo.Context) error {
	ctx := c.Request().Context()

	from := time.Now()
	to := from.AddDate(0, 0, 30)
	if v := c.QueryParam("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "from must be RFC 3339"})
		}
		from = parsed
	}
	if v := c.QueryParam("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "to must be RFC 3339"})
		}
		to = parsed
	}

	blocks, err := h.svc.ListCapacityBlocks(ctx, from, to)
	if err != nil {
		c.Logger().Error("Handler.ListBlocks: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to list capacity blocks"})
	}
	return c.JSON(http.StatusOK, blocks)
}

// CreateBlock reserves capacity for maintenance or another exception.
func (h *Handler) CreateBlock(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CreateCapacityBlockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "validation failed: " + err.Error()})
	}

	block, err := h.svc.CreateCapacityBlock(ctx, req)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: ve.Error()})
		}
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "vehicle not found"})
		}
		c.Logger().Error("Handler.CreateBlock: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to create capacity block"})
	}
	return c.JSON(http.StatusCreated, block)
}

// DeleteBlock removes a capacity block.
func (h *Handler) DeleteBlock(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.svc.DeleteCapacityBlock(ctx, c.Param("blockId")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "capacity block not found"})
		}
		c.Logger().Error("Handler.DeleteBlock: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to delete capacity block"})
	}
	return c.NoContent(http.StatusNoContent)
}
