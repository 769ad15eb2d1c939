package cite

import (
	"strings"

	"github.com/matsen/bibrender/internal/reference"
)

// Venue is the publication context of an entry.
type Venue struct {
	LeadIn   string // "In " or empty
	Text     string
	Addendum string // Volume, number, pages and address
	Source   string // Field the text came from; empty for literals
}

// String joins lead-in, venue text and addendum.
func (v Venue) String() string {
	return v.LeadIn + v.Text + v.Addendum
}

type venueRule struct {
	leadIn   string
	sources  []string
	literal  string
	addendum bool
}

var venueRules = map[reference.EntryType]venueRule{
	reference.InProceedings: {leadIn: "In ", sources: []string{"booktitle"}, addendum: true},
	reference.Article:       {leadIn: "In ", sources: []string{"journaltitle", "journal"}, addendum: true},
	reference.Patent:        {literal: "Patent"},
	reference.Online:        {leadIn: "In ", sources: []string{"eprinttype", "institution", "publisher"}},
	reference.Report:        {leadIn: "In ", sources: []string{"eprinttype", "institution", "publisher"}},
	reference.Misc:          {leadIn: "In ", sources: []string{"eprinttype", "institution", "publisher"}},
	reference.InBook:        {leadIn: "In ", sources: []string{"volume", "booktitle"}},
	reference.Unpublished:   {},
	reference.Book:          {},
	reference.TechReport:    {sources: []string{"type"}},
	reference.Other:         {literal: "UNKNOWN VENUE"},
}

// ResolveVenue selects the venue text and addendum for an entry according
// to its type. Missing fields are skipped; the result may be empty.
func ResolveVenue(e reference.Entry) Venue {
	rule, ok := venueRules[e.Type]
	if !ok {
		rule = venueRules[reference.Other]
	}

	var v Venue
	if rule.literal != "" {
		v.Text = rule.literal
	} else if raw, name, ok := e.FirstField(rule.sources...); ok {
		v.Text = strings.TrimSpace(clean(strings.ReplaceAll(raw, `\&`, "&")))
		v.Source = name
	}
	if v.Text != "" {
		v.LeadIn = rule.leadIn
	}
	if rule.addendum {
		v.Addendum = addendum(e)
	}
	return v
}

var dashes = strings.NewReplacer("---", "—", "--", "–")

func addendum(e reference.Entry) string {
	var b strings.Builder
	if v, ok := e.Field("volume"); ok {
		b.WriteString("\u00a0" + clean(v))
	}
	if v, ok := e.Field("number"); ok {
		b.WriteString("(" + clean(v) + ")")
	}
	if v, ok := e.Field("pages"); ok {
		b.WriteString(" pp. " + clean(dashes.Replace(v)))
	}
	if v, ok := e.Field("address"); ok {
		b.WriteString(". " + clean(v))
	}
	return b.String()
}
