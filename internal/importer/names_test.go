package importer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/bibrender/internal/reference"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		input string
		want  reference.Author
	}{
		{"Richard Mortier", reference.Author{First: []string{"Richard"}, Last: []string{"Mortier"}}},
		{"Mortier, Richard", reference.Author{First: []string{"Richard"}, Last: []string{"Mortier"}}},
		{"Jon A. Crowcroft", reference.Author{First: []string{"Jon", "A."}, Last: []string{"Crowcroft"}}},
		{"Ludwig van Beethoven", reference.Author{First: []string{"Ludwig"}, Von: []string{"van"}, Last: []string{"Beethoven"}}},
		{"van Beethoven, Ludwig", reference.Author{First: []string{"Ludwig"}, Von: []string{"van"}, Last: []string{"Beethoven"}}},
		{"de la Fontaine, Jean", reference.Author{First: []string{"Jean"}, Von: []string{"de", "la"}, Last: []string{"Fontaine"}}},
		{"King, Jr, Martin Luther", reference.Author{First: []string{"Martin", "Luther"}, Last: []string{"King"}, Jr: []string{"Jr"}}},
		{"{World Health Organization}", reference.Author{Last: []string{"{World Health Organization}"}}},
		{"Smith", reference.Author{Last: []string{"Smith"}}},
		{"{\\'E}mile Zola", reference.Author{First: []string{"{\\'E}mile"}, Last: []string{"Zola"}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := SplitName(tt.input)
			if !ok {
				t.Fatalf("SplitName(%q) not ok", tt.input)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SplitName(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestSplitName_Empty(t *testing.T) {
	if _, ok := SplitName("   "); ok {
		t.Error("SplitName(blank) should not be ok")
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		input string
		keys  []string
	}{
		{"Richard Mortier", []string{"Richard Mortier"}},
		{"Richard Mortier and Jon Calhoun", []string{"Richard Mortier", "Jon Calhoun"}},
		{"Mortier, Richard AND Calhoun, Jon and Anil Madhavapeddy", []string{"Richard Mortier", "Jon Calhoun", "Anil Madhavapeddy"}},
		{"{Barnes and Noble} and Jane Doe", []string{"{Barnes and Noble}", "Jane Doe"}},
		{"Jane Doe and others", []string{"Jane Doe", "others"}},
		{"Alexander\n  Anderson", []string{"Alexander Anderson"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var keys []string
			for _, a := range SplitAuthors(tt.input) {
				keys = append(keys, a.Key())
			}
			if diff := cmp.Diff(tt.keys, keys); diff != "" {
				t.Errorf("SplitAuthors(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}
