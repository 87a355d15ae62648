package v1

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	maxTitleLength   = 500
	maxMessageLength = 4000
	defaultListLimit = 100
	maxListLimit     = 1000
)

func validateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return errors.New("title cannot be empty")
	}
	if len(title) > maxTitleLength {
		return errors.Errorf("title exceeds %d characters", maxTitleLength)
	}
	return nil
}

func validateChatMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("message cannot be empty")
	}
	if len(message) > maxMessageLength {
		return errors.Errorf("message exceeds %d characters", maxMessageLength)
	}
	return nil
}

// parsePagination reads limit/offset query parameters, applying the default
// and maximum limits.
func parsePagination(c echo.Context) (*int, *int, error) {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, nil, errors.New("limit must be a positive integer")
		}
		if parsed > maxListLimit {
			parsed = maxListLimit
		}
		limit = parsed
	}

	var offset *int
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return nil, nil, errors.New("offset must be a non-negative integer")
		}
		offset = &parsed
	}
	return &limit, offset, nil
}

// parseDateParam reads a YYYY-MM-DD query parameter. A missing parameter
// yields the fallback.
func parseDateParam(c echo.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errors.Errorf("%s must be a YYYY-MM-DD date", name)
	}
	return parsed, nil
}

// parseTimeParam reads an RFC 3339 query parameter. A missing parameter
// yields the fallback.
func parseTimeParam(c echo.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return parsed, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
