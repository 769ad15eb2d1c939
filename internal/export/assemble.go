package export

import (
	"fmt"
	"io"

	"github.com/matsen/bibrender/internal/bibliography"
	"github.com/matsen/bibrender/internal/cite"
)

// Renderer writes one section in an output format.
type Renderer interface {
	Render(w io.Writer, s bibliography.Section) error
}

// Preambler is implemented by renderers whose documents start with a
// fixed header.
type Preambler interface {
	Preamble(w io.Writer) error
}

// NewRenderer returns the renderer for format: "bibtex" (the default),
// "html" or "jsonl".
func NewRenderer(format string, c *cite.Renderer) (Renderer, error) {
	switch format {
	case "", "bibtex":
		return &BibTeXRenderer{}, nil
	case "html":
		return NewHTMLRenderer(c), nil
	case "jsonl":
		return &JSONLRenderer{Cite: c}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// Assemble writes sections in order. Every entry's date is normalized
// before anything is written, so a date error leaves w untouched. With
// sort set, each section's entries are first ordered newest first,
// independently of the others.
func Assemble(w io.Writer, r Renderer, sections []bibliography.Section, sort bool) error {
	for _, s := range sections {
		for _, e := range s.Entries {
			if _, err := cite.NormalizeDate(e); err != nil {
				return fmt.Errorf("section %q: %w", s.Name, err)
			}
		}
		if sort {
			if err := bibliography.SortByDate(s.Entries); err != nil {
				return fmt.Errorf("section %q: %w", s.Name, err)
			}
		}
	}

	if p, ok := r.(Preambler); ok {
		if err := p.Preamble(w); err != nil {
			return err
		}
	}
	for _, s := range sections {
		if err := r.Render(w, s); err != nil {
			return fmt.Errorf("section %q: %w", s.Name, err)
		}
	}
	return nil
}
