// Package export renders sections of entries to output formats.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/matsen/bibrender/internal/bibliography"
	"github.com/matsen/bibrender/internal/reference"
)

// fieldOrder lists the fields written first, in this order. Fields not
// listed follow alphabetically.
var fieldOrder = []string{
	"author", "title",
	"editor", "journaltitle", "journal", "booktitle", "eprinttype",
	"institution", "school", "organization", "type",
	"volume", "number", "pages", "publisher", "address",
	"issue_date", "date", "year", "month", "day",
	"note", "doi", "url",
}

var fieldRank = func() map[string]int {
	m := make(map[string]int, len(fieldOrder))
	for i, f := range fieldOrder {
		m[f] = i
	}
	return m
}()

// ToBibTeX serializes an entry in canonical form.
func ToBibTeX(e reference.Entry) string {
	var b strings.Builder
	_ = WriteEntry(&b, e)
	return b.String()
}

// ToBibTeXList serializes entries separated by blank lines.
func ToBibTeXList(entries []reference.Entry) string {
	var out []string
	for _, e := range entries {
		out = append(out, ToBibTeX(e))
	}
	return strings.Join(out, "\n")
}

// WriteEntry writes one entry: canonical field order, two-space indent,
// braced values. Unresolved macro expressions are written unbraced and a
// concatenated month keeps its # segments.
func WriteEntry(w io.Writer, e reference.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", typeName(e), e.Key)
	for _, f := range orderedFields(e.Fields) {
		value := f.Value
		if f.Name == "author" && len(e.Authors) > 0 {
			value = formatAuthors(e.Authors)
		}
		switch {
		case f.Bare:
			fmt.Fprintf(&b, "  %s = %s,\n", f.Name, value)
		case f.Name == "month" && len(f.Segments) > 1:
			fmt.Fprintf(&b, "  %s = {%s},\n", f.Name, strings.Join(f.Segments, "} # {"))
		default:
			fmt.Fprintf(&b, "  %s = {%s},\n", f.Name, value)
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func typeName(e reference.Entry) string {
	if e.RawType != "" {
		return e.RawType
	}
	return e.Type.String()
}

func orderedFields(fields []reference.Field) []reference.Field {
	out := append([]reference.Field(nil), fields...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := fieldRank[out[i].Name]
		rj, jok := fieldRank[out[j].Name]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i].Name < out[j].Name
		}
	})
	return out
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First"
func formatAuthors(authors reference.AuthorList) string {
	var formatted []string
	for _, a := range authors {
		if a.IsOthers() {
			formatted = append(formatted, "others")
			continue
		}
		name := strings.Join(append(append([]string{}, a.Von...), a.Last...), " ")
		switch {
		case len(a.Jr) > 0:
			name += ", " + strings.Join(a.Jr, " ") + ", " + strings.Join(a.First, " ")
		case len(a.First) > 0:
			name += ", " + strings.Join(a.First, " ")
		}
		formatted = append(formatted, name)
	}
	return strings.Join(formatted, " and ")
}

// BibTeXRenderer writes sections as normalized BibTeX.
type BibTeXRenderer struct {
	Now func() time.Time // Defaults to time.Now
}

// Render writes a comment block naming the section, then its entries.
func (r *BibTeXRenderer) Render(w io.Writer, s bibliography.Section) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	var b strings.Builder
	b.WriteString("%\n")
	fmt.Fprintf(&b, "%% Normalized by bibrender at %s\n", now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "%% Section: %s\n", s.Name)
	b.WriteString("%\n")
	for _, e := range s.Entries {
		b.WriteString("\n")
		if err := WriteEntry(&b, e); err != nil {
			return err
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
