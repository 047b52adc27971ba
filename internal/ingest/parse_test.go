package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Supplier Name":   "supplier_name",
		" Creation Date ": "creation_date",
		"Unit-Price":      "unit_price",
		"total_price":     "total_price",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestParseUSDate(t *testing.T) {
	got, ok := ParseUSDate("7/14/2023")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.July, 14, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseUSDate("07/04/15")
	require.True(t, ok)
	assert.Equal(t, 2015, got.Year())

	_, ok = ParseUSDate("2023-07-14")
	assert.False(t, ok, "ISO dates are not accepted")
	_, ok = ParseUSDate("")
	assert.False(t, ok)
	_, ok = ParseUSDate("not a date")
	assert.False(t, ok)
}

func TestParseCurrency(t *testing.T) {
	got, ok := ParseCurrency("$1,234.56")
	require.True(t, ok)
	assert.Equal(t, 1234.56, got)

	got, ok = ParseCurrency(" 99 ")
	require.True(t, ok)
	assert.Equal(t, 99.0, got)

	_, ok = ParseCurrency("")
	assert.False(t, ok)
	_, ok = ParseCurrency("n/a")
	assert.False(t, ok)
}

func TestParseNumber(t *testing.T) {
	got, ok := ParseNumber("1,000")
	require.True(t, ok)
	assert.Equal(t, 1000.0, got)

	_, ok = ParseNumber("twelve")
	assert.False(t, ok)
}

func TestParseCellRouting(t *testing.T) {
	assert.Nil(t, parseCell("creation_date", "bogus"))
	assert.Equal(t, 10.5, parseCell("unit_price", "$10.50"))
	assert.Equal(t, 3.0, parseCell("quantity", "3"))
	assert.Equal(t, "Acme Corp", parseCell("supplier_name", "  Acme Corp  "))
	assert.Nil(t, parseCell("supplier_name", "   "))
}

func TestDeriveDateFields(t *testing.T) {
	cases := []struct {
		date            time.Time
		calendarQuarter int
		fiscalYearStart int
		fiscalQuarter   int
	}{
		// July starts both the fiscal year and its first quarter.
		{time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC), 3, 2023, 1},
		{time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC), 2, 2022, 4},
		{time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC), 1, 2022, 3},
		{time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), 4, 2023, 2},
	}
	for _, tc := range cases {
		doc := map[string]any{"creation_date": tc.date}
		deriveDateFields(doc)

		assert.Equal(t, tc.date.Year(), doc["calendar_year"], tc.date)
		assert.Equal(t, int(tc.date.Month()), doc["calendar_month"], tc.date)
		assert.Equal(t, tc.calendarQuarter, doc["calendar_quarter"], tc.date)
		assert.Equal(t, tc.fiscalYearStart, doc["fiscal_year_start"], tc.date)
		assert.Equal(t, tc.fiscalQuarter, doc["fiscal_quarter"], tc.date)
	}
}

func TestUnknownColumns(t *testing.T) {
	got := unknownColumns([]string{"supplier_name", "frobnicate", "total_price", "mystery_col"})
	assert.Equal(t, []string{"frobnicate", "mystery_col"}, got)

	assert.Empty(t, unknownColumns([]string{"supplier_name", "department_name", "creation_date"}))
}

func TestDeriveDateFieldsSkipsMissingDate(t *testing.T) {
	doc := map[string]any{"creation_date": nil}
	deriveDateFields(doc)
	assert.NotContains(t, doc, "calendar_year")
}
