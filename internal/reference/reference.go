// Package reference defines the core domain types for bibliographic entries.
package reference

import "strings"

// EntryType is the recognized BibTeX/BibLaTeX entry type.
type EntryType int

const (
	Other EntryType = iota
	Article
	InProceedings
	InBook
	TechReport
	Patent
	Online
	Report
	Misc
	Unpublished
	Book
)

var entryTypeNames = map[EntryType]string{
	Other:         "other",
	Article:       "article",
	InProceedings: "inproceedings",
	InBook:        "inbook",
	TechReport:    "techreport",
	Patent:        "patent",
	Online:        "online",
	Report:        "report",
	Misc:          "misc",
	Unpublished:   "unpublished",
	Book:          "book",
}

// EntryTypes lists every recognized entry type, "other" included.
var EntryTypes = []EntryType{
	Article, InProceedings, InBook, TechReport, Patent,
	Online, Report, Misc, Unpublished, Book, Other,
}

func (t EntryType) String() string {
	if name, ok := entryTypeNames[t]; ok {
		return name
	}
	return "other"
}

// ParseEntryType maps a raw type name to an EntryType (case-insensitive).
// Unknown names map to Other.
func ParseEntryType(s string) EntryType {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range entryTypeNames {
		if name == s {
			return t
		}
	}
	return Other
}

// Field is a single entry field. Bare marks an unresolved macro expression
// that was kept verbatim (e.g. `jan # "~15"`). Segments holds the resolved
// parts of a # concatenation; Value is their join.
type Field struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Bare     bool     `json:"bare,omitempty"`
	Segments []string `json:"segments,omitempty"`
}

// Entry represents one parsed bibliographic record.
type Entry struct {
	Key     string     `json:"key"`
	Type    EntryType  `json:"-"`
	RawType string     `json:"type"` // As written in the source, lowercased
	Fields  []Field    `json:"fields"`
	Authors AuthorList `json:"authors,omitempty"`
	Line    int        `json:"line,omitempty"` // Source line of the @ marker
}

// Field returns the value of the named field and whether it is present.
// Blank values count as absent.
func (e Entry) Field(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range e.Fields {
		if f.Name == name {
			v := strings.TrimSpace(f.Value)
			return v, v != ""
		}
	}
	return "", false
}

// Lookup returns the named field as parsed.
func (e Entry) Lookup(name string) (Field, bool) {
	name = strings.ToLower(name)
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FirstField returns the first present field among names.
func (e Entry) FirstField(names ...string) (value, name string, ok bool) {
	for _, n := range names {
		if v, ok := e.Field(n); ok {
			return v, n, true
		}
	}
	return "", "", false
}

// AuthorList returns the parsed author list and whether it is non-empty.
func (e Entry) AuthorList() (AuthorList, bool) {
	return e.Authors, len(e.Authors) > 0
}

// TypeClass returns the type tag used for styling: "journal" for articles,
// "conference" for inproceedings, otherwise the raw type verbatim.
func (e Entry) TypeClass() string {
	switch e.Type {
	case Article:
		return "journal"
	case InProceedings:
		return "conference"
	}
	if e.RawType != "" {
		return e.RawType
	}
	return e.Type.String()
}
