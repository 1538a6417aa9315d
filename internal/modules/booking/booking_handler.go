package booking

import (
	"errors"
	"net/http"

	"booking-and-scheduling/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes the booking write path. The requester identity and role
// come from the JWT middleware; the handler never inspects credentials.
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

// RegisterRoutes mounts the booking endpoints on the authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/bookings", h.CreateBooking)
	g.GET("/bookings", h.ListMyBookings)
	g.GET("/bookings/:bookingId", h.GetBooking)
	g.POST("/bookings/:bookingId/cancel", h.CancelBooking)
}

// CreateBooking commits a booking or replays a consumed idempotency key.
func (h *Handler) CreateBooking(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID := c.Get("userID").(string)

	var req models.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "validation failed: " + err.Error()})
	}

	// A replayed idempotency key returns the original body and status.
	resp, _, err := h.svc.Create(ctx, requesterID, req)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetBooking returns one booking to its owner or an admin.
func (h *Handler) GetBooking(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID := c.Get("userID").(string)
	role := c.Get("userRole").(string)

	b, vehicleID, err := h.svc.GetBooking(ctx, c.Param("bookingId"), requesterID, role)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "booking not found"})
		}
		c.Logger().Error("Handler.GetBooking: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to retrieve booking"})
	}
	return c.JSON(http.StatusOK, map[string]any{"booking": b, "assigned_vehicle_id": vehicleID})
}

// ListMyBookings returns the caller's bookings, newest first.
func (h *Handler) ListMyBookings(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID := c.Get("userID").(string)

	bookings, err := h.svc.ListMyBookings(ctx, requesterID)
	if err != nil {
		c.Logger().Error("Handler.ListMyBookings: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to list bookings"})
	}
	return c.JSON(http.StatusOK, bookings)
}

// CancelBooking releases a booking's capacity. Owner or admin only.
func (h *Handler) CancelBooking(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID := c.Get("userID").(string)
	role := c.Get("userRole").(string)

	if err := h.svc.Cancel(ctx, c.Param("bookingId"), requesterID, role); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "booking not found"})
		case errors.Is(err, models.ErrForbidden):
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "cannot cancel this booking"})
		case errors.Is(err, models.ErrBookingNotCancellable):
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "booking is already cancelled"})
		default:
			c.Logger().Error("Handler.CancelBooking: ", err)
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to cancel booking"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": models.BookingStatusCancelled})
}

// writeBookingError maps the commit error taxonomy to HTTP responses.
func writeBookingError(c echo.Context, err error) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: ve.Error(), Code: "VALIDATION"})
	}
	var de *models.DistanceExceededError
	if errors.As(err, &de) {
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Message: de.Error(), Code: "DISTANCE_EXCEEDED"})
	}
	switch {
	case errors.Is(err, models.ErrScheduleClosed):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: err.Error(), Code: "SCHEDULE_CLOSED"})
	case errors.Is(err, models.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: err.Error(), Code: "CAPACITY_EXCEEDED"})
	case errors.Is(err, models.ErrConflict):
		// Retries exhausted; the client may safely resubmit the same key.
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: err.Error(), Code: "CONFLICT"})
	case errors.Is(err, models.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Message: "service temporarily unavailable"})
	default:
		c.Logger().Error("Handler.CreateBooking: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to create booking"})
	}
}
