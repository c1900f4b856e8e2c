package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/playperu/geohunt/internal/geohunt"
)

// ParseCoordinates pairs two comma-joined lists positionally: the i-th
// latitude goes with the i-th longitude. Lists of different length or with
// non-numeric entries are rejected.
func ParseCoordinates(lats, lons string) ([]geohunt.Point, error) {
	latVals, err := splitFloats(lats)
	if err != nil {
		return nil, fmt.Errorf("latitudes: %w", err)
	}
	lonVals, err := splitFloats(lons)
	if err != nil {
		return nil, fmt.Errorf("longitudes: %w", err)
	}
	if len(latVals) != len(lonVals) {
		return nil, fmt.Errorf("%d latitudes but %d longitudes", len(latVals), len(lonVals))
	}

	points := make([]geohunt.Point, len(latVals))
	for i := range latVals {
		points[i] = geohunt.Point{Lon: lonVals[i], Lat: latVals[i]}
	}
	return points, nil
}

// EncodeCoordinates is the inverse of ParseCoordinates.
func EncodeCoordinates(points []geohunt.Point) (lats, lons string) {
	latParts := make([]string, len(points))
	lonParts := make([]string, len(points))
	for i, p := range points {
		latParts[i] = strconv.FormatFloat(p.Lat, 'f', -1, 64)
		lonParts[i] = strconv.FormatFloat(p.Lon, 'f', -1, 64)
	}
	return strings.Join(latParts, ","), strings.Join(lonParts, ",")
}

func splitFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
