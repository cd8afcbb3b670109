package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	nonSlugChars = regexp.MustCompile("[^a-z0-9-]")
	dashRuns     = regexp.MustCompile("-+")
)

// Slugify converts a string to a URL-friendly slug
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// BusinessDate formats t as a calendar date in t's own location, so callers
// convert to the restaurant's zone first.
func BusinessDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatOrderNumber renders an order number as PREFIX-YYMMDD-NNNN
func FormatOrderNumber(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", strings.ToUpper(prefix), day.Format("060102"), seq)
}

// GenerateTransactionID generates a payment transaction id as TXN-YYYYMMDD-XXXXXXXX
func GenerateTransactionID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("TXN-%s-%s", now.Format("20060102"), suffix)
}
