package export

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/matsen/bibrender/internal/bibliography"
	"github.com/matsen/bibrender/internal/cite"
	"github.com/matsen/bibrender/internal/importer"
	"github.com/matsen/bibrender/internal/reference"
)

// Record is one rendered citation in JSONL output.
type Record struct {
	Section string   `json:"section"`
	Key     string   `json:"key"`
	Type    string   `json:"type"`
	SortKey string   `json:"sort_key"`
	Date    string   `json:"date"`
	Authors []string `json:"authors,omitempty"` // "First Last" keys
	Title   string   `json:"title,omitempty"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

// NewRecord builds the record for an entry and its rendered citation.
func NewRecord(section string, e reference.Entry, c *cite.Citation) (Record, error) {
	h, err := CitationHTML(c)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Section: section,
		Key:     e.Key,
		Type:    typeName(e),
		SortKey: c.Date.SortKey,
		Date:    c.Date.Display,
		Text:    c.Text(),
		HTML:    h,
	}
	if title, ok := e.Field("title"); ok {
		rec.Title = cleanToken(title)
	}
	for _, a := range e.Authors {
		if !a.IsOthers() {
			rec.Authors = append(rec.Authors, a.Map(cleanToken).FirstLast())
		}
	}
	return rec, nil
}

// JSONLRenderer writes one JSON object per entry.
type JSONLRenderer struct {
	Cite *cite.Renderer
}

// Render writes a record for every entry in the section.
func (r *JSONLRenderer) Render(w io.Writer, s bibliography.Section) error {
	records := make([]Record, 0, len(s.Entries))
	for _, e := range s.Entries {
		c, err := r.Cite.Render(e)
		if err != nil {
			return err
		}
		rec, err := NewRecord(s.Name, e, c)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func cleanToken(s string) string {
	return importer.DecodeLaTeX(strings.Join(strings.Fields(s), " "))
}
