// Package ingest loads the purchase order CSV dataset into the document
// store, normalizing column names and deriving calendar and fiscal fields.
package ingest

import (
	"strconv"
	"strings"
	"time"
)

// dateFields and the price/quantity sets pick the typed parser per column.
var (
	dateFields     = map[string]bool{"creation_date": true, "purchase_date": true}
	currencyFields = map[string]bool{"unit_price": true, "total_price": true}
	numberFields   = map[string]bool{"quantity": true}
)

// NormalizeKey turns a CSV header into a document field name.
func NormalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, " ", "_")
	return strings.ReplaceAll(k, "-", "_")
}

// ParseUSDate parses month-first dates in either 4-digit or 2-digit year
// form. Unparseable input yields ok=false, never an error: dirty rows keep
// their other columns.
func ParseUSDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"1/2/2006", "1/2/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCurrency parses a dollar amount, tolerating $ signs and thousands
// separators.
func ParseCurrency(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseNumber parses a plain numeric column, tolerating thousands
// separators.
func ParseNumber(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseCell converts one raw CSV cell according to its normalized column
// name. Empty and unparseable typed cells become nil.
func parseCell(normalizedKey, value string) any {
	switch {
	case dateFields[normalizedKey]:
		if t, ok := ParseUSDate(value); ok {
			return t
		}
		return nil
	case currencyFields[normalizedKey]:
		if f, ok := ParseCurrency(value); ok {
			return f
		}
		return nil
	case numberFields[normalizedKey]:
		if f, ok := ParseNumber(value); ok {
			return f
		}
		return nil
	default:
		s := strings.TrimSpace(value)
		if s == "" {
			return nil
		}
		return s
	}
}

// deriveDateFields adds calendar and fiscal breakdowns from creation_date.
// The fiscal year starts in July: July 2023 belongs to fiscal year 2023,
// June 2023 to fiscal year 2022.
func deriveDateFields(doc map[string]any) {
	dt, ok := doc["creation_date"].(time.Time)
	if !ok {
		return
	}
	month := int(dt.Month())
	doc["calendar_year"] = dt.Year()
	doc["calendar_month"] = month
	doc["calendar_quarter"] = (month-1)/3 + 1

	fiscalYearStart := dt.Year()
	if month < 7 {
		fiscalYearStart--
	}
	doc["fiscal_year_start"] = fiscalYearStart

	fiscalMonth := ((month-7)+12)%12 + 1
	doc["fiscal_quarter"] = (fiscalMonth-1)/3 + 1
}
