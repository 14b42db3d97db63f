package geo

import (
	"math"
	"testing"
)

func TestLocationValid(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want bool
	}{
		{"origin", Location{0, 0}, true},
		{"copenhagen", Location{55.6761, 12.5683}, true},
		{"north pole", Location{90, 0}, true},
		{"date line", Location{0, -180}, true},
		{"latitude too high", Location{90.1, 0}, false},
		{"latitude too low", Location{-91, 0}, false},
		{"longitude too high", Location{0, 180.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.Valid(); got != tt.want {
				t.Errorf("Valid(%v) = %v, want %v", tt.loc, got, tt.want)
			}
		})
	}
}

func TestLocationStringRoundTrip(t *testing.T) {
	loc := Location{Lat: 55.6761, Lon: 12.5683}
	parsed, err := ParseLocation(loc.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != loc {
		t.Errorf("round trip: got %v, want %v", parsed, loc)
	}
}

func TestParseLocationRejectsBadInput(t *testing.T) {
	for _, s := range []string{"", "55.6", "a,b", "95,0", "0,200"} {
		if _, err := ParseLocation(s); err == nil {
			t.Errorf("ParseLocation(%q): expected error", s)
		}
	}
}

func TestDistanceKm(t *testing.T) {
	if got := (Distance{Value: 10, Unit: Kilometres}).Km(); got != 10 {
		t.Errorf("10km in km = %f", got)
	}
	if got := (Distance{Value: 10, Unit: Miles}).Km(); math.Abs(got-16.09344) > 1e-9 {
		t.Errorf("10mi in km = %f, want 16.09344", got)
	}
}

func TestDistanceFromKm(t *testing.T) {
	if got := (Distance{Unit: Miles}).FromKm(KmPerMile); math.Abs(got-1) > 1e-9 {
		t.Errorf("FromKm(1 mile in km) = %f, want 1", got)
	}
	if got := (Distance{Unit: Kilometres}).FromKm(7.5); got != 7.5 {
		t.Errorf("FromKm(7.5) = %f", got)
	}
}

func TestHaversine(t *testing.T) {
	copenhagen := Location{Lat: 55.6761, Lon: 12.5683}
	malmo := Location{Lat: 55.6050, Lon: 13.0038}

	if got := Haversine(copenhagen, copenhagen); got != 0 {
		t.Errorf("distance to self = %f, want 0", got)
	}

	// Copenhagen to Malmö is roughly 28.5 km.
	got := Haversine(copenhagen, malmo)
	if got < 27 || got > 30 {
		t.Errorf("Copenhagen-Malmö = %f km, want ~28.5", got)
	}
	if back := Haversine(malmo, copenhagen); math.Abs(back-got) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", got, back)
	}
}

// A quarter of the equator pins the Earth radius to the one the index's geo
// filter uses; a drifting constant would make reported distances disagree
// with the radius restriction.
func TestHaversineQuarterEquator(t *testing.T) {
	got := Haversine(Location{}, Location{Lon: 90})
	want := EarthRadiusKm * math.Pi / 2
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("quarter equator = %f km, want %f", got, want)
	}
	if math.Abs(got-10018.754) > 0.01 {
		t.Errorf("quarter equator = %f km, want ~10018.754", got)
	}
}

func TestDistanceCalculatorUnit(t *testing.T) {
	center := Location{Lat: 55.6761, Lon: 12.5683}
	target := Location{Lat: 55.6050, Lon: 13.0038}

	km := (&DistanceCalculator{Center: center, Unit: Kilometres}).To(target)
	mi := (&DistanceCalculator{Center: center, Unit: Miles}).To(target)
	if math.Abs(km-mi*KmPerMile) > 1e-9 {
		t.Errorf("unit conversion mismatch: %f km vs %f mi", km, mi)
	}
}
