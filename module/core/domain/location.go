package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate marks latitude/longitude values outside the WGS84
// domain. Out-of-range input is a caller error and is rejected, never
// clamped.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 position. Accuracy, altitude, heading and speed
// are optional telemetry; zero means the source did not report them.
type Coordinate struct {
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	Accuracy float64 `json:"accuracy,omitempty"`
	Altitude float64 `json:"altitude,omitempty"`
	Heading  float64 `json:"heading,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
}

// Validate checks the coordinate against the valid WGS84 ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// LocationSample is a single reading from the position source: a
// coordinate plus the time it was taken, in epoch milliseconds. The
// engine only ever reads samples; it never mutates one. Duplicate or
// out-of-order timestamps are accepted as-is.
type LocationSample struct {
	Coordinate
	Timestamp int64 `json:"timestamp"`
}
