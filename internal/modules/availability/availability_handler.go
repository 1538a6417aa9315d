package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"booking-and-scheduling/internal/models"

	"github.com/labstack/echo/v4"
)

// Handler exposes the read-only availability query. loc is the facility
// timezone: the date query param names a local calendar day, so parsing it
// anywhere else would tile the neighbouring day's hours.
type Handler struct {
	svc ServiceInterface
	loc *time.Location
}

func NewHandler(svc ServiceInterface, loc *time.Location) *Handler {
	return &Handler{svc: svc, loc: loc}
}

// RegisterRoutes mounts the availability query on the public group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/availability", h.GetAvailability)
}

// GetAvailability returns the ordered offerable slots for
// ?date=YYYY-MM-DD&service_type=&weight_lbs=&lat=&lon=.
func (h *Handler) GetAvailability(c echo.Context) error {
	ctx := c.Request().Context()

	date, err := time.ParseInLocation("2006-01-02", c.QueryParam("date"), h.loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "date must be YYYY-MM-DD"})
	}
	weight, err := strconv.ParseFloat(c.QueryParam("weight_lbs"), 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "weight_lbs must be a number"})
	}

	req := models.AvailabilityRequest{
		Date:               date,
		ServiceType:        c.QueryParam("service_type"),
		EstimatedWeightLbs: weight,
	}
	if v := c.QueryParam("lat"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "lat must be a number"})
		}
		req.Latitude = &lat
	}
	if v := c.QueryParam("lon"); v != "" {
		lon, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "lon must be a number"})
		}
		req.Longitude = &lon
	}

	slots, err := h.svc.Slots(ctx, req)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: ve.Error()})
		}
		var de *models.DistanceExceededError
		if errors.As(err, &de) {
			return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Message: de.Error(), Code: "DISTANCE_EXCEEDED"})
		}
		c.Logger().Error("Handler.GetAvailability: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to compute availability"})
	}
	return c.JSON(http.StatusOK, slots)
}
