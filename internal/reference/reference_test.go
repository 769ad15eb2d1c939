package reference

import "testing"

func TestParseEntryType(t *testing.T) {
	tests := []struct {
		input string
		want  EntryType
	}{
		{"article", Article},
		{"InProceedings", InProceedings},
		{"  techreport ", TechReport},
		{"patent", Patent},
		{"book", Book},
		{"phdthesis", Other},
		{"", Other},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseEntryType(tt.input); got != tt.want {
				t.Errorf("ParseEntryType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEntryField(t *testing.T) {
	e := Entry{
		Key: "k",
		Fields: []Field{
			{Name: "title", Value: " A Title "},
			{Name: "note", Value: "   "},
		},
	}

	if v, ok := e.Field("title"); !ok || v != "A Title" {
		t.Errorf("Field(title) = %q, %v", v, ok)
	}
	if v, ok := e.Field("TITLE"); !ok || v != "A Title" {
		t.Errorf("Field(TITLE) = %q, %v", v, ok)
	}
	if _, ok := e.Field("note"); ok {
		t.Error("blank note should be absent")
	}
	if _, ok := e.Field("doi"); ok {
		t.Error("missing doi should be absent")
	}
	if _, ok := e.AuthorList(); ok {
		t.Error("AuthorList() should be absent without authors")
	}
}

func TestFirstField(t *testing.T) {
	e := Entry{Fields: []Field{{Name: "journal", Value: "CACM"}}}

	v, name, ok := e.FirstField("journaltitle", "journal")
	if !ok || v != "CACM" || name != "journal" {
		t.Errorf("FirstField() = %q, %q, %v", v, name, ok)
	}
	if _, _, ok := e.FirstField("booktitle"); ok {
		t.Error("FirstField(booktitle) should be absent")
	}
}

func TestTypeClass(t *testing.T) {
	tests := []struct {
		entry Entry
		want  string
	}{
		{Entry{Type: Article, RawType: "article"}, "journal"},
		{Entry{Type: InProceedings, RawType: "inproceedings"}, "conference"},
		{Entry{Type: Patent, RawType: "patent"}, "patent"},
		{Entry{Type: Other, RawType: "phdthesis"}, "phdthesis"},
		{Entry{Type: Other}, "other"},
	}

	for _, tt := range tests {
		if got := tt.entry.TypeClass(); got != tt.want {
			t.Errorf("TypeClass(%q) = %q, want %q", tt.entry.RawType, got, tt.want)
		}
	}
}

func TestAuthorNames(t *testing.T) {
	a := Author{First: []string{"Ludwig"}, Von: []string{"van"}, Last: []string{"Beethoven"}, Jr: []string{"II"}}

	if got := a.LastFirst(); got != "van Beethoven, II, Ludwig" {
		t.Errorf("LastFirst() = %q", got)
	}
	if got := a.FirstLast(); got != "Ludwig van Beethoven, II" {
		t.Errorf("FirstLast() = %q", got)
	}
	if got := a.Key(); got != "Ludwig Beethoven" {
		t.Errorf("Key() = %q", got)
	}
	if got := a.Abbreviated().LastFirst(); got != "van Beethoven, II, L." {
		t.Errorf("Abbreviated().LastFirst() = %q", got)
	}
	if a.First[0] != "Ludwig" {
		t.Error("Abbreviated() must not modify the original")
	}
}

func TestAuthorAbbreviated_MultipleGivenNames(t *testing.T) {
	a := Author{First: []string{"Émile", "Jean"}, Last: []string{"Durand"}}
	if got := a.Abbreviated().LastFirst(); got != "Durand, É." {
		t.Errorf("Abbreviated().LastFirst() = %q, want %q", got, "Durand, É.")
	}
}

func TestAuthorOthers(t *testing.T) {
	a := Author{Last: []string{"others"}}
	if !a.IsOthers() {
		t.Fatal("IsOthers() = false")
	}
	if got := a.LastFirst(); got != "et al." {
		t.Errorf("LastFirst() = %q", got)
	}
	if got := (Author{Last: []string{"WHO"}}).Abbreviated().LastFirst(); got != "WHO" {
		t.Errorf("single-token author = %q", got)
	}
}
