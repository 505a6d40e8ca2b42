package events

import (
	"net/url"
	"testing"
	"time"

	"github.com/Togather-Foundation/gather/internal/validation"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	values := url.Values{}
	values.Set("location", "  Main Hall ")
	values.Set("date_from", "2026-01-01")
	values.Set("date_to", "2026-02-01T18:30:00+02:00")
	values.Set("search", "go,  meetup\tberlin")
	values.Set("ordering", "created_at,-date")

	filters, err := ParseFilters(values)
	require.NoError(t, err)
	require.Equal(t, "Main Hall", filters.Location)
	require.NotNil(t, filters.DateFrom)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *filters.DateFrom)
	require.NotNil(t, filters.DateTo)
	require.Equal(t, time.Date(2026, 2, 1, 16, 30, 0, 0, time.UTC), *filters.DateTo)
	require.Equal(t, []string{"go", "meetup", "berlin"}, filters.SearchTerms)
	require.Equal(t, []Order{{Key: SortCreatedAt}, {Key: SortDate, Desc: true}}, filters.Ordering)
}

func TestParseFiltersDefaults(t *testing.T) {
	filters, err := ParseFilters(url.Values{})
	require.NoError(t, err)
	require.Empty(t, filters.Location)
	require.Nil(t, filters.DateFrom)
	require.Nil(t, filters.DateTo)
	require.Nil(t, filters.SearchTerms)
	require.Equal(t, DefaultOrdering, filters.Ordering)
}

func TestParseFiltersInvalidDate(t *testing.T) {
	values := url.Values{}
	values.Set("date_to", "next tuesday")

	_, err := ParseFilters(values)
	require.Error(t, err)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"Enter a valid date/time."}, verr.Fields["date_to"])
}

func TestParseFiltersRejectsNULLocation(t *testing.T) {
	values, err := url.ParseQuery("location=Berlin%00&search=go%00lang")
	require.NoError(t, err)

	_, err = ParseFilters(values)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{validation.MessageNUL}, verr.Fields["location"])

	values.Del("location")
	filters, err := ParseFilters(values)
	require.NoError(t, err)
	require.Equal(t, []string{"golang"}, filters.SearchTerms)
}

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Order
	}{
		{name: "empty", input: "", want: DefaultOrdering},
		{name: "ascending date", input: "date", want: []Order{{Key: SortDate}}},
		{name: "unknown terms ignored", input: "title,-created_at,organizer", want: []Order{{Key: SortCreatedAt, Desc: true}}},
		{name: "only unknown", input: "-title", want: DefaultOrdering},
		{name: "duplicates keep first", input: "-date,date", want: []Order{{Key: SortDate, Desc: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseOrdering(tt.input))
		})
	}
}

func TestParseDateTimeLayouts(t *testing.T) {
	want := time.Date(2026, 5, 4, 10, 15, 0, 0, time.UTC)
	for _, value := range []string{
		"2026-05-04T10:15:00Z",
		"2026-05-04T12:15:00+02:00",
		"2026-05-04T10:15:00",
		"2026-05-04T10:15",
		"2026-05-04 10:15:00",
		"2026-05-04 10:15",
	} {
		got, err := ParseDateTime("date", value)
		require.NoError(t, err, value)
		require.True(t, want.Equal(*got), value)
	}

	got, err := ParseDateTime("date", "   ")
	require.NoError(t, err)
	require.Nil(t, got)
}
