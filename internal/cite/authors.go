package cite

import (
	"strings"

	"github.com/matsen/bibrender/internal/reference"
)

// Homepages maps "First Last" author keys to homepage URLs.
type Homepages map[string]string

// Lookup returns the homepage for an author key, if any.
func (h Homepages) Lookup(key string) (string, bool) {
	u := strings.TrimSpace(h[key])
	return u, u != ""
}

// Highlighter decides which authors are marked as distinguished.
type Highlighter interface {
	Highlight(a reference.Author) bool
}

// AuthorSet highlights authors whose "First Last" key is in the set.
type AuthorSet map[string]bool

// NewAuthorSet builds an AuthorSet from author keys.
func NewAuthorSet(keys ...string) AuthorSet {
	s := make(AuthorSet, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			s[k] = true
		}
	}
	return s
}

// DefaultHighlight returns the highlight set used when none is configured.
func DefaultHighlight() AuthorSet {
	return NewAuthorSet("Richard Mortier")
}

// Highlight implements Highlighter.
func (s AuthorSet) Highlight(a reference.Author) bool {
	return s[a.Key()]
}

// RenderAuthors formats an author list as "Last, F., Last, F. and Last, F."
// Authors with a homepage are linked; highlighted authors get an extra
// class. hl may be nil.
func RenderAuthors(list reference.AuthorList, homepages Homepages, hl Highlighter) Segment {
	seg := Segment{Class: "authors"}
	n := len(list)

	for i, raw := range list {
		switch {
		case i == 0:
		case i == n-1:
			seg.Parts = append(seg.Parts, Part{Text: " and "})
		default:
			seg.Parts = append(seg.Parts, Part{Text: ", "})
		}

		a := raw.Map(clean)
		class := "author"
		if hl != nil && hl.Highlight(a) {
			class += " highlight"
		}
		href, _ := homepages.Lookup(a.Key())
		seg.Parts = append(seg.Parts, Part{
			Text:  a.Abbreviated().LastFirst(),
			Class: class,
			Href:  href,
		})
	}

	return seg
}
