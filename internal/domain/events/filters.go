package events

import (
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/Togather-Foundation/gather/internal/validation"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseFilters reads location, date_from, date_to, search and ordering from a query string.
func ParseFilters(values url.Values) (Filters, error) {
	filters := Filters{
		Location: strings.TrimSpace(values.Get("location")),
	}
	if validation.ContainsNUL(filters.Location) {
		return filters, validation.NewFieldError("location", validation.MessageNUL)
	}

	dateFrom, err := ParseDateTime("date_from", values.Get("date_from"))
	if err != nil {
		return filters, err
	}
	dateTo, err := ParseDateTime("date_to", values.Get("date_to"))
	if err != nil {
		return filters, err
	}
	filters.DateFrom = dateFrom
	filters.DateTo = dateTo

	filters.SearchTerms = parseSearchTerms(values.Get("search"))
	filters.Ordering = parseOrdering(values.Get("ordering"))
	return filters, nil
}

// ParseDateTime accepts RFC 3339 timestamps or naive dates/times, which are read as UTC.
func ParseDateTime(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}
	return nil, validation.NewFieldError(field, "Enter a valid date/time.")
}

// parseSearchTerms splits on whitespace and commas; every term must match.
func parseSearchTerms(value string) []string {
	value = strings.ReplaceAll(value, "\x00", "")
	terms := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(terms) == 0 {
		return nil
	}
	return terms
}

// parseOrdering keeps recognised fields in order and drops the rest. An empty
// result falls back to DefaultOrdering.
func parseOrdering(value string) []Order {
	var ordering []Order
	seen := map[SortKey]bool{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		key := SortKey(strings.TrimPrefix(part, "-"))
		switch key {
		case SortDate, SortCreatedAt:
		default:
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		ordering = append(ordering, Order{Key: key, Desc: desc})
	}
	if len(ordering) == 0 {
		return DefaultOrdering
	}
	return ordering
}
