package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

// parseOptionalDate accepts RFC3339 or plain dates; endOfDay pushes bare
// dates to 23:59:59 so "to" ranges are inclusive.
func parseOptionalDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			lastErr = err
			continue
		}
		t = t.UTC()
		if endOfDay && layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Second)
		}
		return &t, nil
	}
	return nil, lastErr
}

// parseOptionalAmount treats an empty string as zero.
func parseOptionalAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
