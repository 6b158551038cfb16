package ctdf

import (
	"fmt"
	"strconv"
	"strings"
)

type Location struct {
	Type        string    `json:"-" groups:"basic"`
	Coordinates []float64 `json:"coordinates" groups:"basic"`
}

// ParseWKTPoint reads a "POINT (lon lat)" string into a Location
func ParseWKTPoint(wkt string) (Location, error) {
	trimmed := strings.TrimSpace(wkt)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "POINT") {
		return Location{}, fmt.Errorf("unsupported geometry %q", wkt)
	}

	start := strings.Index(trimmed, "(")
	end := strings.LastIndex(trimmed, ")")
	if start == -1 || end <= start {
		return Location{}, fmt.Errorf("malformed point %q", wkt)
	}

	parts := strings.Fields(trimmed[start+1 : end])
	if len(parts) != 2 {
		return Location{}, fmt.Errorf("malformed point %q", wkt)
	}

	longitude, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Location{}, err
	}
	latitude, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Location{}, err
	}

	return Location{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}, nil
}
