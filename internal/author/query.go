// Package author matches `--author` filters against entry author lists.
package author

import (
	"strings"

	"github.com/matsen/bibrender/internal/importer"
	"github.com/matsen/bibrender/internal/reference"
)

// Query is one --author filter. Last is required; First narrows the match.
type Query struct {
	First string
	Last  string
}

// ParseQuery reads an --author value. "Mortier" names a surname only,
// "Richard Mortier" and "Mortier, Richard" both give first "Richard" and
// last "Mortier". In the space form the final word is the surname, so
// "Timothy C Yu" keeps "Timothy C" as the first name.
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if input == "" {
		return Query{}
	}

	if last, first, ok := strings.Cut(input, ","); ok && strings.TrimSpace(last) != "" {
		return Query{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
	}

	words := strings.Fields(input)
	n := len(words) - 1
	return Query{First: strings.Join(words[:n], " "), Last: words[n]}
}

// Matches reports whether a is the author q names. The surname must equal
// q.Last ignoring case, with or without the von part, so "Rossum" and
// "van Rossum" both select "Guido van Rossum". q.First, if set, must
// prefix the given names: "Tim Yu" selects "Timothy C Yu". A surname is
// never prefix-matched, so "Yu" leaves "Yujia Li" out. Accents written as
// LaTeX are decoded first and "others" never matches.
func (q Query) Matches(a reference.Author) bool {
	if q.Last == "" || a.IsOthers() {
		return false
	}
	a = a.Map(importer.DecodeLaTeX)

	if !surnameMatches(q.Last, a) {
		return false
	}
	if q.First == "" {
		return true
	}
	given := strings.ToLower(strings.Join(a.First, " "))
	return strings.HasPrefix(given, strings.ToLower(q.First))
}

func surnameMatches(want string, a reference.Author) bool {
	last := strings.Join(a.Last, " ")
	if strings.EqualFold(want, last) {
		return true
	}
	withVon := strings.Join(append(append([]string{}, a.Von...), a.Last...), " ")
	return strings.EqualFold(want, withVon)
}

// MatchesName is Matches for an unparsed BibTeX name such as
// "Calhoun, Jon" or "Jon Calhoun".
func (q Query) MatchesName(name string) bool {
	a, ok := importer.SplitName(name)
	return ok && q.Matches(a)
}

// MatchesAny reports whether any of authors matches.
func (q Query) MatchesAny(authors []reference.Author) bool {
	for _, a := range authors {
		if q.Matches(a) {
			return true
		}
	}
	return false
}

// AllMatch is the filter for repeated --author flags: each query must
// match someone in authors.
func AllMatch(queries []Query, authors []reference.Author) bool {
	for _, q := range queries {
		if !q.MatchesAny(authors) {
			return false
		}
	}
	return true
}
