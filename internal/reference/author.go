package reference

import (
	"strings"
	"unicode/utf8"
)

// Author represents one name from an author list, split into BibTeX name
// parts. Each part is a sequence of whitespace-separated tokens.
type Author struct {
	First []string `json:"first,omitempty"` // Given name tokens
	Von   []string `json:"von,omitempty"`   // Lowercase particles ("van", "de la")
	Last  []string `json:"last"`            // Surname tokens
	Jr    []string `json:"jr,omitempty"`    // Suffix ("Jr.", "III")
}

// AuthorList is an author sequence in citation order.
type AuthorList []Author

// IsOthers reports whether this is the BibTeX "others" placeholder.
func (a Author) IsOthers() bool {
	return len(a.First) == 0 && len(a.Von) == 0 && len(a.Jr) == 0 &&
		len(a.Last) == 1 && strings.EqualFold(a.Last[0], "others")
}

// Key returns the "<first given token> <first surname token>" lookup key.
func (a Author) Key() string {
	var first, last string
	if len(a.First) > 0 {
		first = a.First[0]
	}
	if len(a.Last) > 0 {
		last = a.Last[0]
	}
	return strings.TrimSpace(first + " " + last)
}

// Abbreviated returns a copy whose given names are reduced to the initial
// of the first given-name token.
func (a Author) Abbreviated() Author {
	out := a
	if len(a.First) == 0 {
		return out
	}
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(a.First[0]))
	if r == utf8.RuneError {
		out.First = nil
		return out
	}
	out.First = []string{string(r) + "."}
	return out
}

// LastFirst renders the name surname-first: "von Last, Jr, First".
func (a Author) LastFirst() string {
	if a.IsOthers() {
		return "et al."
	}
	name := strings.Join(append(append([]string{}, a.Von...), a.Last...), " ")
	if len(a.Jr) > 0 {
		name += ", " + strings.Join(a.Jr, " ")
	}
	if len(a.First) > 0 {
		name += ", " + strings.Join(a.First, " ")
	}
	return name
}

// FirstLast renders the name in reading order: "First von Last, Jr".
func (a Author) FirstLast() string {
	parts := append(append(append([]string{}, a.First...), a.Von...), a.Last...)
	name := strings.Join(parts, " ")
	if len(a.Jr) > 0 {
		name += ", " + strings.Join(a.Jr, " ")
	}
	return name
}

// Map returns a copy of the author with fn applied to every token.
func (a Author) Map(fn func(string) string) Author {
	conv := func(in []string) []string {
		if in == nil {
			return nil
		}
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = fn(s)
		}
		return out
	}
	return Author{First: conv(a.First), Von: conv(a.Von), Last: conv(a.Last), Jr: conv(a.Jr)}
}
