package services

import (
	"errors"
	"strings"
	"time"
)

var errClosingAtFormat = errors.New("closingAt must be an ISO-8601 date or timestamp")

var closingAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseClosingAt accepts RFC 3339 timestamps and plain dates. Values without
// a zone are read as UTC.
func ParseClosingAt(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, errClosingAtFormat
	}
	for _, layout := range closingAtLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errClosingAtFormat
}
