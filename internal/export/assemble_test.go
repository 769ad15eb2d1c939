package export

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matsen/bibrender/internal/bibliography"
	"github.com/matsen/bibrender/internal/cite"
)

// nameRenderer writes the section name and its keys.
type nameRenderer struct{}

func (nameRenderer) Render(w io.Writer, s bibliography.Section) error {
	_, err := io.WriteString(w, s.Name+":"+strings.Join(sectionKeys(s), ",")+"\n")
	return err
}

func sectionKeys(s bibliography.Section) []string {
	var out []string
	for _, e := range s.Entries {
		out = append(out, e.Key)
	}
	return out
}

func TestAssemble_SortsEachSection(t *testing.T) {
	sections := []bibliography.Section{
		{Name: "one", Entries: parseAll(t, "@misc{a, year = 2001}\n@misc{b, year = 2002}")},
		{Name: "two", Entries: parseAll(t, "@misc{c, year = 1999}\n@misc{d, year = 2030}")},
	}

	var b strings.Builder
	if err := Assemble(&b, nameRenderer{}, sections, true); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("one:b,a\ntwo:d,c\n", b.String()); diff != "" {
		t.Errorf("Assemble() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_DateErrorNamesSection(t *testing.T) {
	sections := []bibliography.Section{
		{Name: "bad", Entries: parseAll(t, "@misc{nodate, title = {x}}")},
	}
	var b strings.Builder
	err := Assemble(&b, nameRenderer{}, sections, true)
	if !errors.Is(err, cite.ErrNoDate) {
		t.Fatalf("Assemble() error = %v, want ErrNoDate", err)
	}
	if !strings.Contains(err.Error(), `"bad"`) || !strings.Contains(err.Error(), "nodate") {
		t.Errorf("error %q should name section and entry", err)
	}
	if b.Len() != 0 {
		t.Errorf("output written before failure: %q", b.String())
	}
}

func TestAssemble_DateErrorWithoutSort(t *testing.T) {
	sections := []bibliography.Section{
		{Name: "good", Entries: parseAll(t, "@misc{dated, year = 2020}")},
		{Name: "bad", Entries: parseAll(t, "@misc{nodate, title = {x}}")},
	}
	for _, r := range []Renderer{
		&BibTeXRenderer{},
		NewHTMLRenderer(cite.NewRenderer(nil, nil)),
		&JSONLRenderer{Cite: cite.NewRenderer(nil, nil)},
	} {
		var b strings.Builder
		err := Assemble(&b, r, sections, false)
		if !errors.Is(err, cite.ErrNoDate) {
			t.Fatalf("Assemble(%T) error = %v, want ErrNoDate", r, err)
		}
		if !strings.Contains(err.Error(), `"bad"`) {
			t.Errorf("error %q should name the section", err)
		}
		if b.Len() != 0 {
			t.Errorf("%T wrote output before failure: %q", r, b.String())
		}
	}
}

func TestNewRenderer(t *testing.T) {
	c := cite.NewRenderer(nil, nil)
	for format, want := range map[string]string{
		"":       "*export.BibTeXRenderer",
		"bibtex": "*export.BibTeXRenderer",
		"html":   "*export.HTMLRenderer",
		"jsonl":  "*export.JSONLRenderer",
	} {
		r, err := NewRenderer(format, c)
		if err != nil {
			t.Fatalf("NewRenderer(%q) error = %v", format, err)
		}
		if got := typeString(r); got != want {
			t.Errorf("NewRenderer(%q) = %s, want %s", format, got, want)
		}
	}
	if _, err := NewRenderer("pdf", c); err == nil {
		t.Error("NewRenderer(pdf) expected error")
	}
}

func typeString(r Renderer) string {
	switch r.(type) {
	case *BibTeXRenderer:
		return "*export.BibTeXRenderer"
	case *HTMLRenderer:
		return "*export.HTMLRenderer"
	case *JSONLRenderer:
		return "*export.JSONLRenderer"
	}
	return "unknown"
}
