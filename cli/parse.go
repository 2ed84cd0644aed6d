// ABOUTME: Argument parsing helpers shared by the survey commands
// ABOUTME: key=value patches, hazard lists, and GPS coordinates
package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/models"
)

// parsePatch turns either a single JSON object or key=value pairs into a merge
// patch for section. Values for string fields stay strings; other values are
// read as JSON literals (numbers, booleans, null).
func parsePatch(section models.SurveySection, args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("nothing to set")
	}
	if len(args) == 1 && strings.HasPrefix(strings.TrimSpace(args[0]), "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(args[0]), &obj); err != nil {
			return nil, fmt.Errorf("invalid JSON patch: %w", err)
		}
		return []byte(args[0]), nil
	}

	values := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		values[k] = v
	}
	return draft.FieldPatch(section, values)
}

// parseHazards parses a comma separated hazard list. Unknown names are an error.
func parseHazards(input string) ([]models.HazardType, error) {
	out := []models.HazardType{}
	for _, part := range strings.Split(input, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		t := models.HazardType(name)
		if !t.Valid() {
			return nil, fmt.Errorf("unknown hazard type: %s", name)
		}
		out = append(out, t)
	}
	return out, nil
}

// parseGPS parses "lat,lon" into coordinates.
func parseGPS(input string) (*models.GPSCoordinates, error) {
	if input == "" {
		return nil, nil
	}
	latStr, lonStr, ok := strings.Cut(input, ",")
	if !ok {
		return nil, fmt.Errorf("expected lat,lon, got %q", input)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid latitude %q", latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid longitude %q", lonStr)
	}
	return &models.GPSCoordinates{Latitude: lat, Longitude: lon}, nil
}
