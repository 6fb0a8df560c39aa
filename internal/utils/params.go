package utils

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ExtractIDFromParams returns the {id} path value of the request.
func ExtractIDFromParams(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}

// ParseStopID parses a numeric stop id.
func ParseStopID(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("id must be an integer")
	}
	if id < 0 {
		return 0, fmt.Errorf("id must not be negative")
	}
	return id, nil
}

// ParseFloatParam parses key from params. Failures are recorded in
// fieldErrors and also returned.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, error) {
	raw := params.Get(key)
	if raw == "" {
		err := fmt.Errorf("%s is required", key)
		fieldErrors[key] = append(fieldErrors[key], err.Error())
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		err = fmt.Errorf("invalid %s: must be a number", key)
		fieldErrors[key] = append(fieldErrors[key], err.Error())
		return 0, err
	}
	return value, nil
}

// ParseOptionalFloatParam returns def when key is absent.
func ParseOptionalFloatParam(params url.Values, key string, def float64, fieldErrors map[string][]string) float64 {
	if params.Get(key) == "" {
		return def
	}
	value, err := ParseFloatParam(params, key, fieldErrors)
	if err != nil {
		return def
	}
	return value
}

// ParseCoordinateParams parses a latitude/longitude pair and range-checks it.
func ParseCoordinateParams(params url.Values, latKey, lonKey string, fieldErrors map[string][]string) (float64, float64) {
	lat, latErr := ParseFloatParam(params, latKey, fieldErrors)
	lon, lonErr := ParseFloatParam(params, lonKey, fieldErrors)
	if latErr != nil || lonErr != nil {
		return lat, lon
	}
	if lat < -90 || lat > 90 {
		fieldErrors[latKey] = append(fieldErrors[latKey], "must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		fieldErrors[lonKey] = append(fieldErrors[lonKey], "must be between -180 and 180")
	}
	return lat, lon
}
