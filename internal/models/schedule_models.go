package models

import "time"

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"window_start"`
	End   time.Time `json:"window_end"`
}

// Overlaps reports whether two half-open windows intersect. A window ending
// exactly when another starts does not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// WeeklyHours is the standing operating schedule for one weekday.
// OpenTime/CloseTime are wall-clock strings ("08:00") interpreted in the
// facility's timezone.
type WeeklyHours struct {
	DayOfWeek int    `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	Active    bool   `json:"active"`
}

// AvailabilityOverride marks a date range as fully closed (holiday) or as
// operating with modified hours. Overrides always win over WeeklyHours.
type AvailabilityOverride struct {
	ID        string    `json:"id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Closed    bool      `json:"closed"`
	OpenTime  string    `json:"open_time,omitempty"`
	CloseTime string    `json:"close_time,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Covers reports whether the override applies to the given calendar date.
// Each value contributes the calendar date of its own location, so a local
// date near midnight never slides onto the neighbouring UTC date.
func (o AvailabilityOverride) Covers(date time.Time) bool {
	d := civilDate(date)
	return !d.Before(civilDate(o.StartDate)) && !d.After(civilDate(o.EndDate))
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateOverrideRequest is the admin input for a new availability override.
type CreateOverrideRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Closed    bool   `json:"closed"`
	OpenTime  string `json:"open_time,omitempty" validate:"omitempty,datetime=15:04"`
	CloseTime string `json:"close_time,omitempty" validate:"omitempty,datetime=15:04"`
	Reason    string `json:"reason,omitempty"`
}

// ServiceArea is a facility center plus the maximum radius within which
// bookings are accepted. ExpressRadiusMiles, when set, caps express-service
// bookings at a tighter radius.
type ServiceArea struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	MaxRadiusMiles     float64  `json:"max_radius_miles"`
	ExpressRadiusMiles *float64 `json:"express_radius_miles,omitempty"`
	Active             bool     `json:"active"`
}
