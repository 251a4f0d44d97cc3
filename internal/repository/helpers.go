package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/scheduler"
)

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseTimestamp parses an RFC3339 column value.
func parseTimestamp(s, column string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", column, err)
	}
	return t, nil
}

// parseDate parses a date column, ignoring any time component.
func parseDate(s, column string) (time.Time, error) {
	t, err := calendar.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", column, err)
	}
	return t, nil
}

// encodePredecessors stores a predecessor list as a JSON array.
func encodePredecessors(preds []string) (string, error) {
	if preds == nil {
		preds = []string{}
	}
	b, err := json.Marshal(preds)
	if err != nil {
		return "", fmt.Errorf("encoding predecessors: %w", err)
	}
	return string(b), nil
}

// decodePredecessors accepts a JSON array or a legacy bare string.
func decodePredecessors(s string) []string {
	return scheduler.NormalizePredecessors(s)
}
