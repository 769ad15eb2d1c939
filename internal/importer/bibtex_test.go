package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/bibrender/internal/reference"
)

const sampleBib = `This line is an implicit comment.

@string{icdcs = "International Conference on Distributed Computing Systems"}

@comment{generated by hand}

@inproceedings{Mortier2024-ab,
  author    = {Richard Mortier and Jon Calhoun},
  title     = {A {Study} of Things},
  booktitle = icdcs,
  pages     = {577--588},
  date      = {2024-10},
}

@article(Smith2020,
  author = "Smith, John",
  title = "Another Paper",
  journal = {Journal of Tests},
  year = 2020,
  month = jan # "~15"
)
`

func TestParseBibTeX_Sample(t *testing.T) {
	lib := ParseBibTeX(sampleBib)

	if len(lib.Failed) != 0 {
		t.Fatalf("unexpected failures: %+v", lib.Failed)
	}

	want := Stats{Blocks: 4, Entries: 2, Comments: 1, Strings: 1}
	if diff := cmp.Diff(want, lib.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}

	first := lib.Entries[0]
	if first.Key != "Mortier2024-ab" || first.Type != reference.InProceedings {
		t.Errorf("first entry = %s (%v)", first.Key, first.Type)
	}
	if first.Line != 7 {
		t.Errorf("first entry line = %d, want 7", first.Line)
	}
	if v, _ := first.Field("booktitle"); v != "International Conference on Distributed Computing Systems" {
		t.Errorf("booktitle macro not expanded: %q", v)
	}
	if v, _ := first.Field("title"); v != "A {Study} of Things" {
		t.Errorf("title = %q", v)
	}
	if len(first.Authors) != 2 || first.Authors[1].Key() != "Jon Calhoun" {
		t.Errorf("authors = %+v", first.Authors)
	}

	second := lib.Entries[1]
	if second.Type != reference.Article {
		t.Errorf("second entry type = %v", second.Type)
	}
	if v, _ := second.Field("year"); v != "2020" {
		t.Errorf("year = %q", v)
	}
	month := second.Fields[len(second.Fields)-1]
	if !month.Bare || month.Value != `jan # "~15"` {
		t.Errorf("month = %+v, want bare raw expression", month)
	}
}

func TestParseBibTeX_PredefinedStrings(t *testing.T) {
	lib := ParseBibTeXWithStrings(`@misc{k, title = "x", month = JAN}`, map[string]string{"jan": "January"})

	if len(lib.Entries) != 1 {
		t.Fatalf("entries = %d, failures = %+v", len(lib.Entries), lib.Failed)
	}
	if v, _ := lib.Entries[0].Field("month"); v != "January" {
		t.Errorf("month = %q, want January", v)
	}
	if lib.Entries[0].Fields[1].Bare {
		t.Error("resolved macro should not be bare")
	}
}

func TestParseBibTeX_Concatenation(t *testing.T) {
	lib := ParseBibTeX(`@string{pre = "Proc. "}
@inproceedings{k, booktitle = pre # {of Tests}}`)

	if len(lib.Entries) != 1 {
		t.Fatalf("entries = %d", len(lib.Entries))
	}
	if v, _ := lib.Entries[0].Field("booktitle"); v != "Proc. of Tests" {
		t.Errorf("booktitle = %q", v)
	}
}

func TestParseBibTeX_ResolvedMonthKeepsSegments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"defined macro", "@string{jan = {January}}\n@misc{k, year = 2020, month = jan # \"~15\"}", []string{"January", "~15"}},
		{"quoted parts", `@misc{k, year = 2020, month = "jan" # "~15"}`, []string{"jan", "~15"}},
		{"single part", `@misc{k, year = 2020, month = "jan"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := ParseBibTeX(tt.input)
			if len(lib.Entries) != 1 {
				t.Fatalf("entries = %d, failures = %+v", len(lib.Entries), lib.Failed)
			}
			month, ok := lib.Entries[0].Lookup("month")
			if !ok {
				t.Fatal("month field missing")
			}
			if month.Bare {
				t.Error("resolved month should not be bare")
			}
			if diff := cmp.Diff(tt.want, month.Segments); diff != "" {
				t.Errorf("Segments mismatch (-want +got):\n%s", diff)
			}
			if tt.want != nil && month.Value != strings.Join(tt.want, "") {
				t.Errorf("Value = %q, want joined segments", month.Value)
			}
		})
	}
}

func TestParseBibTeX_FailedBlockRecovery(t *testing.T) {
	input := `@article{broken,
  title = {Unbalanced,
  year = 2020
}

@article{good,
  title = {Fine},
  year = 2021,
}
`
	lib := ParseBibTeX(input)

	if len(lib.Entries) != 1 || lib.Entries[0].Key != "good" {
		t.Fatalf("entries = %+v", lib.Entries)
	}
	if len(lib.Failed) != 1 {
		t.Fatalf("failures = %d, want 1", len(lib.Failed))
	}
	fb := lib.Failed[0]
	if fb.Line != 1 {
		t.Errorf("failed line = %d, want 1", fb.Line)
	}
	if !strings.HasPrefix(fb.Raw, "@article{broken") || strings.Contains(fb.Raw, "good") {
		t.Errorf("failed raw = %q", fb.Raw)
	}
}

func TestParseBibTeX_DuplicateKey(t *testing.T) {
	input := `@misc{dup, title = {One}}
@misc{dup, title = {Two}}
@misc{other, title = {Three}}`
	lib := ParseBibTeX(input)

	if len(lib.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(lib.Entries))
	}
	if len(lib.Failed) != 1 {
		t.Fatalf("failures = %d, want 1", len(lib.Failed))
	}
	fb := lib.Failed[0]
	if diff := cmp.Diff([]string{"dup"}, fb.DuplicateKeys); diff != "" {
		t.Errorf("DuplicateKeys mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(fb.Err, ErrDuplicateKey) {
		t.Errorf("Err = %v, want ErrDuplicateKey", fb.Err)
	}
	if fb.Raw != "@misc{dup, title = {Two}}" {
		t.Errorf("Raw = %q", fb.Raw)
	}
	if fb.Line != 2 {
		t.Errorf("Line = %d, want 2", fb.Line)
	}
}

func TestParseBibTeX_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing key", `@article{, title = {x}}`},
		{"missing equals", `@article{k, title {x}}`},
		{"duplicate field", `@article{k, title = {x}, title = {y}}`},
		{"bad delimiter", `@article[k]`},
		{"unterminated quote", `@article{k, title = "x}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := ParseBibTeX(tt.input)
			if len(lib.Entries) != 0 {
				t.Errorf("entries = %+v, want none", lib.Entries)
			}
			if len(lib.Failed) != 1 {
				t.Errorf("failures = %d, want 1", len(lib.Failed))
			}
		})
	}
}

func TestParseBibTeX_StrayAt(t *testing.T) {
	lib := ParseBibTeX("contact: someone @ example.org\n@misc{k, title = {x}}")
	if len(lib.Entries) != 1 || len(lib.Failed) != 0 {
		t.Errorf("entries = %d, failures = %d", len(lib.Entries), len(lib.Failed))
	}
}

func TestParseBibTeX_Preamble(t *testing.T) {
	lib := ParseBibTeX(`@preamble{"\newcommand{\noop}[1]{}"}`)
	if len(lib.Preambles) != 1 || lib.Preambles[0] != `\newcommand{\noop}[1]{}` {
		t.Errorf("preambles = %q", lib.Preambles)
	}
}
