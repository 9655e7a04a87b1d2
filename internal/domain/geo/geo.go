// Package geo provides coordinate helpers and the map viewport policy.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// quantScale fixes coordinate equality at 5 decimal places, about 1.1 m at
// the equator.
const quantScale = 1e5

// ErrInvalidCoordinate reports a latitude or longitude outside its range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate is finite and within range.
func (c Coordinate) Validate() error {
	switch {
	case math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90:
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, c.Latitude)
	case math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180:
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// Quantize maps a coordinate component to an integer grid of 1e-5 degrees.
func Quantize(v float64) int64 {
	return int64(math.Round(v * quantScale))
}

// SamePoint reports whether a and b are equal after quantization.
func SamePoint(a, b Coordinate) bool {
	return Quantize(a.Latitude) == Quantize(b.Latitude) &&
		Quantize(a.Longitude) == Quantize(b.Longitude)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Latitude, c.Longitude)
}
