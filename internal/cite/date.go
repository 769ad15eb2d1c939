// Package cite turns bibliographic entries into formatted citations.
package cite

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/bibrender/internal/reference"
)

// Date resolution errors. Any of them is fatal for the entry.
var (
	ErrNoDate   = errors.New("no issue_date, date or year field")
	ErrBadYear  = errors.New("invalid year")
	ErrBadMonth = errors.New("invalid month")
	ErrBadDay   = errors.New("invalid day")
)

// Date is a normalized entry date.
type Date struct {
	SortKey string // YYYY[-MM[-DD]], lexicographically chronological
	Display string // "DD Month, YYYY", "Month YYYY" or "YYYY"
	Year    string
	Month   string // Two digits, empty if unknown
	Day     string // Two digits, empty if unknown
}

// MonthName returns the English month name, or "" if the month is unknown.
func (d Date) MonthName() string {
	n, err := strconv.Atoi(d.Month)
	if err != nil || n < 1 || n > 12 {
		return ""
	}
	return time.Month(n).String()
}

// NormalizeDate resolves an entry's date from, in order of preference,
// issue_date ("<month> <year>"), date ("YYYY-MM-DD" or "YYYY MM DD"), or
// year plus optional month. Sources are never merged.
func NormalizeDate(e reference.Entry) (Date, error) {
	year, month, day, err := extractDate(e)
	if err != nil {
		return Date{}, fmt.Errorf("entry %s: %w", e.Key, err)
	}
	d, err := buildDate(year, month, day)
	if err != nil {
		return Date{}, fmt.Errorf("entry %s: %w", e.Key, err)
	}
	return d, nil
}

func extractDate(e reference.Entry) (year, month, day string, err error) {
	if v, ok := e.Field("issue_date"); ok {
		parts := strings.Fields(v)
		switch len(parts) {
		case 1:
			return parts[0], "", "", nil
		case 2:
			return parts[1], parts[0], "", nil
		}
		return "", "", "", fmt.Errorf("%w: malformed issue_date %q, want \"<month> <year>\"", ErrBadMonth, v)
	}

	if v, ok := e.Field("date"); ok {
		parts := strings.FieldsFunc(v, func(r rune) bool {
			return r == '-' || r == ' ' || r == '\t'
		})
		if len(parts) == 0 || len(parts) > 3 {
			return "", "", "", fmt.Errorf("%w: date %q", ErrBadYear, v)
		}
		parts = append(parts, "", "")
		return parts[0], parts[1], cleanDay(parts[2]), nil
	}

	year, ok := e.Field("year")
	if !ok {
		return "", "", "", ErrNoDate
	}
	if m, ok := e.Field("month"); ok {
		// Only the first #-segment is the month; the rest may carry a day.
		segs := strings.Split(m, "#")
		if f, _ := e.Lookup("month"); len(f.Segments) > 1 {
			segs = f.Segments
		}
		month = strings.Trim(segs[0], " \t\n\"{}")
		day = cleanDay(strings.Join(segs[1:], " "))
		if !isDigits(day) {
			day = ""
		}
	}
	if d, ok := e.Field("day"); ok {
		day = cleanDay(d)
	}
	return year, month, day, nil
}

func buildDate(year, month, day string) (Date, error) {
	year = strings.Trim(year, " \t\"{}")
	if len(year) != 4 || !isDigits(year) {
		return Date{}, fmt.Errorf("%w: %q", ErrBadYear, year)
	}

	mm, name, err := normalizeMonth(month)
	if err != nil {
		return Date{}, err
	}

	var dd string
	if day != "" && mm != "" {
		n, err := strconv.Atoi(day)
		if err != nil || n < 1 || n > 31 {
			return Date{}, fmt.Errorf("%w: %q", ErrBadDay, day)
		}
		dd = fmt.Sprintf("%02d", n)
	}

	d := Date{SortKey: year, Display: year, Year: year, Month: mm, Day: dd}
	switch {
	case dd != "":
		d.SortKey = year + "-" + mm + "-" + dd
		d.Display = fmt.Sprintf("%s %s, %s", dd, name, year)
	case mm != "":
		d.SortKey = year + "-" + mm
		d.Display = name + " " + year
	}
	return d, nil
}

// normalizeMonth maps a month token (number, abbreviation or full name,
// case-insensitive) to its two-digit code and English name.
func normalizeMonth(tok string) (code, name string, err error) {
	t := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(tok), "."))
	if t == "" {
		return "", "", nil
	}

	if isDigits(t) && len(t) <= 2 {
		n, _ := strconv.Atoi(t)
		if n < 1 || n > 12 {
			return "", "", fmt.Errorf("%w: %q", ErrBadMonth, tok)
		}
		return fmt.Sprintf("%02d", n), time.Month(n).String(), nil
	}

	if len(t) >= 3 {
		for m := time.January; m <= time.December; m++ {
			full := strings.ToLower(m.String())
			if strings.HasPrefix(full, t) {
				return fmt.Sprintf("%02d", int(m)), m.String(), nil
			}
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrBadMonth, tok)
}

func cleanDay(s string) string {
	return strings.Trim(s, " \t\n\"'{}~\u00a0")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
