package cite

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/matsen/bibrender/internal/importer"
	"github.com/matsen/bibrender/internal/reference"
)

func entryWith(key string, fields ...string) reference.Entry {
	e := reference.Entry{Key: key, Type: reference.Misc, RawType: "misc"}
	for i := 0; i+1 < len(fields); i += 2 {
		e.Fields = append(e.Fields, reference.Field{Name: fields[i], Value: fields[i+1]})
	}
	return e
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		sortKey string
		display string
		year    string
	}{
		{"issue_date", []string{"issue_date", "March 2019", "year", "2020"}, "2019-03", "March 2019", "2019"},
		{"issue_date abbreviated", []string{"issue_date", "feb 2019"}, "2019-02", "February 2019", "2019"},
		{"date year-month", []string{"date", "2024-10"}, "2024-10", "October 2024", "2024"},
		{"date full", []string{"date", "2024-10-05"}, "2024-10-05", "05 October, 2024", "2024"},
		{"date spaces", []string{"date", "2024 3 7"}, "2024-03-07", "07 March, 2024", "2024"},
		{"date year only", []string{"date", "2021"}, "2021", "2021", "2021"},
		{"date wins over year", []string{"year", "1999", "date", "2001-01"}, "2001-01", "January 2001", "2001"},
		{"year only", []string{"year", "2020"}, "2020", "2020", "2020"},
		{"year month abbreviation", []string{"year", "2020", "month", "jan"}, "2020-01", "January 2020", "2020"},
		{"month upper case", []string{"year", "2020", "month", "DEC"}, "2020-12", "December 2020", "2020"},
		{"month full name", []string{"year", "2020", "month", "September"}, "2020-09", "September 2020", "2020"},
		{"month numeric", []string{"year", "2020", "month", "7"}, "2020-07", "July 2020", "2020"},
		{"month two digits", []string{"year", "2020", "month", "11"}, "2020-11", "November 2020", "2020"},
		{"macro artifact", []string{"year", "2020", "month", "jan#"}, "2020-01", "January 2020", "2020"},
		{"macro day", []string{"year", "2020", "month", `jan # "~15"`}, "2020-01-15", "15 January, 2020", "2020"},
		{"macro junk discarded", []string{"year", "2020", "month", `may # " and June"`}, "2020-05", "May 2020", "2020"},
		{"day field", []string{"year", "2020", "month", "jun", "day", "3"}, "2020-06-03", "03 June, 2020", "2020"},
		{"braced year", []string{"year", "{2018}"}, "2018", "2018", "2018"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(entryWith("k", tt.fields...))
			if err != nil {
				t.Fatalf("NormalizeDate() error = %v", err)
			}
			if got.SortKey != tt.sortKey {
				t.Errorf("SortKey = %q, want %q", got.SortKey, tt.sortKey)
			}
			if got.Display != tt.display {
				t.Errorf("Display = %q, want %q", got.Display, tt.display)
			}
			if got.Year != tt.year {
				t.Errorf("Year = %q, want %q", got.Year, tt.year)
			}
		})
	}
}

func TestNormalizeDate_ResolvedMonthSegments(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		sortKey  string
	}{
		{"macro expanded", []string{"January", "~15"}, "2020-01-15"},
		{"quoted abbreviation", []string{"jan", "~15"}, "2020-01-15"},
		{"non-numeric tail", []string{"May", " and June"}, "2020-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := entryWith("k", "year", "2020")
			e.Fields = append(e.Fields, reference.Field{
				Name:     "month",
				Value:    strings.Join(tt.segments, ""),
				Segments: tt.segments,
			})
			got, err := NormalizeDate(e)
			if err != nil {
				t.Fatalf("NormalizeDate() error = %v", err)
			}
			if got.SortKey != tt.sortKey {
				t.Errorf("SortKey = %q, want %q", got.SortKey, tt.sortKey)
			}
		})
	}
}

func TestNormalizeDate_ParsedMonthConcatenation(t *testing.T) {
	lib := importer.ParseBibTeXWithStrings(
		`@misc{k, year = 2020, month = jan # "~15"}`,
		map[string]string{"jan": "January"},
	)
	if len(lib.Entries) != 1 {
		t.Fatalf("entries = %d, failures = %+v", len(lib.Entries), lib.Failed)
	}
	got, err := NormalizeDate(lib.Entries[0])
	if err != nil {
		t.Fatalf("NormalizeDate() error = %v", err)
	}
	if got.Display != "15 January, 2020" {
		t.Errorf("Display = %q", got.Display)
	}
}

func TestNormalizeDate_MalformedIssueDate(t *testing.T) {
	_, err := NormalizeDate(entryWith("k", "issue_date", "1 May 2020"))
	if !errors.Is(err, ErrBadMonth) {
		t.Fatalf("error = %v, want ErrBadMonth", err)
	}
	if !strings.Contains(err.Error(), `malformed issue_date "1 May 2020"`) {
		t.Errorf("error %q should describe the issue_date", err)
	}
}

func TestNormalizeDate_MonthName(t *testing.T) {
	d, err := NormalizeDate(entryWith("k", "date", "2024-10"))
	if err != nil {
		t.Fatal(err)
	}
	if d.MonthName() != "October" || d.Month != "10" || d.Day != "" {
		t.Errorf("got %+v", d)
	}
	if (Date{Year: "2024"}).MonthName() != "" {
		t.Error("MonthName() without month should be empty")
	}
}

func TestNormalizeDate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   error
	}{
		{"nothing", []string{"title", "x", "month", "jan"}, ErrNoDate},
		{"blank year", []string{"year", "  "}, ErrNoDate},
		{"short year", []string{"year", "99"}, ErrBadYear},
		{"text year", []string{"year", "in press"}, ErrBadYear},
		{"bad month", []string{"year", "2020", "month", "Smarch"}, ErrBadMonth},
		{"month thirteen", []string{"date", "2020-13"}, ErrBadMonth},
		{"bad day", []string{"date", "2020-01-40"}, ErrBadDay},
		{"too many parts", []string{"date", "2020-01-02-03"}, ErrBadYear},
		{"issue_date too long", []string{"issue_date", "1 May 2020"}, ErrBadMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeDate(entryWith("Key2020", tt.fields...))
			if !errors.Is(err, tt.want) {
				t.Fatalf("NormalizeDate() error = %v, want %v", err, tt.want)
			}
			if !strings.Contains(err.Error(), "Key2020") {
				t.Errorf("error %q should name the entry key", err)
			}
		})
	}
}

// Lexicographic order of sort keys must agree with chronological order,
// however the date was written.
func TestNormalizeDate_SortKeyIsChronological(t *testing.T) {
	start := time.Date(1998, time.December, 25, 0, 0, 0, 0, time.UTC)
	var prev string
	for i := 0; i < 800; i += 3 {
		day := start.AddDate(0, 0, i)

		var e reference.Entry
		switch (i / 3) % 3 {
		case 0:
			e = entryWith("k", "date", day.Format("2006-1-2"))
		case 1:
			e = entryWith("k", "date", day.Format("2006 01 02"))
		default:
			e = entryWith("k", "year", day.Format("2006"),
				"month", strings.ToLower(day.Format("Jan")), "day", fmt.Sprint(day.Day()))
		}

		d, err := NormalizeDate(e)
		if err != nil {
			t.Fatalf("NormalizeDate(%s) error = %v", day, err)
		}
		if d.SortKey != day.Format("2006-01-02") {
			t.Fatalf("SortKey = %q for %s", d.SortKey, day.Format("2006-01-02"))
		}
		if prev != "" && !(prev < d.SortKey) {
			t.Fatalf("sort key %q not after %q", d.SortKey, prev)
		}
		prev = d.SortKey
	}
}

func TestNormalizeMonth(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		abbr := strings.ToLower(m.String()[:3])
		code, name, err := normalizeMonth(abbr)
		if err != nil {
			t.Fatalf("normalizeMonth(%q) error = %v", abbr, err)
		}
		if code != fmt.Sprintf("%02d", int(m)) || name != m.String() {
			t.Errorf("normalizeMonth(%q) = %q, %q", abbr, code, name)
		}
	}

	if code, _, _ := normalizeMonth("Sept."); code != "09" {
		t.Errorf("normalizeMonth(Sept.) = %q, want 09", code)
	}
	if code, name, err := normalizeMonth(""); code != "" || name != "" || err != nil {
		t.Errorf("normalizeMonth(\"\") = %q, %q, %v", code, name, err)
	}
}
