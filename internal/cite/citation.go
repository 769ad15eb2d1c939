package cite

import (
	"strings"

	"github.com/matsen/bibrender/internal/importer"
	"github.com/matsen/bibrender/internal/reference"
)

// DOIBase is the resolver prefix for DOI links.
const DOIBase = "https://doi.org/"

// Part is a run of citation text, optionally styled and/or linked.
type Part struct {
	Text  string
	Class string
	Href  string
}

// Segment is one field of a citation. An empty Class means the parts are
// emitted without a wrapping element.
type Segment struct {
	Class string
	Parts []Part
}

// Text returns the segment's plain text.
func (s Segment) Text() string {
	var b strings.Builder
	for _, p := range s.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Citation is a fully rendered entry.
type Citation struct {
	Key      string
	Class    string // Container class, e.g. "paper journal"
	Date     Date
	Segments []Segment
}

// Text returns the citation as plain text.
func (c *Citation) Text() string {
	var b strings.Builder
	for _, s := range c.Segments {
		b.WriteString(s.Text())
	}
	return strings.TrimSpace(b.String())
}

// Segment returns the first segment with the given class.
func (c *Citation) Segment(class string) (Segment, bool) {
	for _, s := range c.Segments {
		if s.Class == class {
			return s, true
		}
	}
	return Segment{}, false
}

func (c *Citation) add(class string, parts ...Part) {
	c.Segments = append(c.Segments, Segment{Class: class, Parts: parts})
}

// Renderer renders entries into citations. It holds only read-only
// lookup state, so rendering an entry is a pure function of the entry.
type Renderer struct {
	Homepages Homepages
	Highlight Highlighter
}

// NewRenderer returns a Renderer. A nil highlighter disables highlighting.
func NewRenderer(homepages Homepages, hl Highlighter) *Renderer {
	return &Renderer{Homepages: homepages, Highlight: hl}
}

// Render formats an entry. The only error is a failure to resolve the
// entry's date.
func (r *Renderer) Render(e reference.Entry) (*Citation, error) {
	date, err := NormalizeDate(e)
	if err != nil {
		return nil, err
	}

	c := &Citation{Key: e.Key, Class: "paper " + e.TypeClass(), Date: date}

	if authors, ok := e.AuthorList(); ok {
		c.Segments = append(c.Segments, RenderAuthors(authors, r.Homepages, r.Highlight))
	}

	c.add("year", Part{Text: " (" + date.Year + "). "})

	if title, ok := e.Field("title"); ok {
		c.add("title", Part{Text: "“" + clean(title) + "”. "})
	}

	venue := ResolveVenue(e)
	venueShown := false
	if venue.Text != "" || venue.Addendum != "" {
		var parts []Part
		if venue.LeadIn != "" {
			parts = append(parts, Part{Text: venue.LeadIn})
		}
		if venue.Text != "" {
			parts = append(parts, Part{Text: venue.Text, Class: "venue"})
		}
		if add := venue.Addendum; add != "" {
			if venue.Text == "" {
				add = strings.TrimLeft(add, " .\u00a0")
			}
			parts = append(parts, Part{Text: add})
		}
		c.add("", parts...)
		venueShown = true
	}

	if pub, ok := e.Field("publisher"); ok && venue.Source != "publisher" {
		text := "(" + clean(pub) + ")"
		if venueShown {
			text = " " + text
		}
		c.add("publisher", Part{Text: text})
		venueShown = true
	}

	if venueShown && e.Type != reference.Unpublished {
		c.add("", Part{Text: ". "})
	}

	c.add("date", Part{Text: date.Display + ". "})

	if note, ok := e.Field("note"); ok {
		c.add("note", Part{Text: strings.ReplaceAll(clean(note)+". ", "..", ".")})
	}

	if doi, ok := e.Field("doi"); ok {
		doi = trimDOIPrefix(doi)
		c.add("doi", Part{Text: "doi:" + doi + " ", Href: DOIBase + doi})
	}

	if url, ok := e.Field("url"); ok {
		c.add("url", Part{Text: url, Href: url})
	}

	return c, nil
}

// trimDOIPrefix strips resolver prefixes like "https://doi.org/".
func trimDOIPrefix(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{
		"https://doi.org/", "http://doi.org/",
		"https://dx.doi.org/", "http://dx.doi.org/",
		"doi.org/", "DOI:", "doi:",
	} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.TrimSpace(doi)
}

// clean collapses whitespace and decodes LaTeX markup.
func clean(s string) string {
	return importer.DecodeLaTeX(strings.Join(strings.Fields(s), " "))
}
