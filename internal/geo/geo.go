// Package geo provides coordinates, distance units, and great-circle distance.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the equatorial radius used for Haversine distance. It
// matches the radius the index's geo filter computes with, so a reported
// distance never exceeds the radius that admitted the hit.
const EarthRadiusKm = 6378.137

// KmPerMile converts miles to kilometres.
const KmPerMile = 1.609344

// DistanceUnit identifies the unit a distance value is expressed in.
type DistanceUnit string

const (
	Kilometres DistanceUnit = "km"
	Miles      DistanceUnit = "mi"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether latitude is in [-90,90] and longitude in [-180,180].
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// String renders the location in the stored-field form "lat,lon".
func (l Location) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lon, 'f', -1, 64)
}

// ParseLocation parses the stored-field form "lat,lon".
func ParseLocation(s string) (Location, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return Location{}, fmt.Errorf("malformed location %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Location{}, fmt.Errorf("malformed latitude in %q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Location{}, fmt.Errorf("malformed longitude in %q: %w", s, err)
	}
	loc := Location{Lat: lat, Lon: lon}
	if !loc.Valid() {
		return Location{}, fmt.Errorf("location %q out of range", s)
	}
	return loc, nil
}

// Distance is a magnitude with a unit.
type Distance struct {
	Value float64      `json:"value"`
	Unit  DistanceUnit `json:"unit"`
}

// Km returns the distance in kilometres.
func (d Distance) Km() float64 {
	if d.Unit == Miles {
		return d.Value * KmPerMile
	}
	return d.Value
}

// FromKm converts kilometres into this distance's unit.
func (d Distance) FromKm(km float64) float64 {
	if d.Unit == Miles {
		return km / KmPerMile
	}
	return km
}

// Haversine returns the great-circle distance in kilometres between two points.
func Haversine(a, b Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// DistanceCalculator computes distances from a fixed center, reported in a
// fixed unit. The compiler binds one per location clause so the radius filter
// and the per-match distance always share the same center and unit.
type DistanceCalculator struct {
	Center Location
	Unit   DistanceUnit
}

// To returns the distance from the center to loc in the calculator's unit.
func (c *DistanceCalculator) To(loc Location) float64 {
	km := Haversine(c.Center, loc)
	return Distance{Unit: c.Unit}.FromKm(km)
}
