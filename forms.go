package main

import (
	"time"

	"github.com/shopspring/decimal"
)

// Form field coercion: blank optional numbers collapse to exact zero, the
// form layer rejects malformed input before anything is persisted.

const dateLayout = "2006-01-02"

func parseDecimalField(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func parseDateField(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

// checkboxOn interprets an HTML checkbox submission.
func checkboxOn(raw string) bool {
	return raw == "on" || raw == "true" || raw == "1"
}
