package export

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matsen/bibrender/internal/bibliography"
	"github.com/matsen/bibrender/internal/cite"
)

// DefaultPlaceholder is the templating line that starts an HTML document.
const DefaultPlaceholder = "{{dummy}}"

const indentUnit = "  "

// HTMLRenderer writes sections as citation lists.
type HTMLRenderer struct {
	Cite        *cite.Renderer
	Placeholder string // First line of the document; DefaultPlaceholder if empty
}

// NewHTMLRenderer returns an HTMLRenderer using c for citations.
func NewHTMLRenderer(c *cite.Renderer) *HTMLRenderer {
	return &HTMLRenderer{Cite: c, Placeholder: DefaultPlaceholder}
}

// Preamble writes the placeholder line.
func (r *HTMLRenderer) Preamble(w io.Writer) error {
	p := r.Placeholder
	if p == "" {
		p = DefaultPlaceholder
	}
	_, err := io.WriteString(w, p+"\n")
	return err
}

// Render writes the section heading followed by an ordered list with one
// item per entry. A date error for any entry aborts before anything is
// written.
func (r *HTMLRenderer) Render(w io.Writer, s bibliography.Section) error {
	heading := element(atom.Section, "class", "papers")
	heading.AppendChild(text(s.Name))

	list := element(atom.Ol, "class", "papers")
	for _, e := range s.Entries {
		c, err := r.Cite.Render(e)
		if err != nil {
			return err
		}
		list.AppendChild(CitationNode(c))
	}

	var buf bytes.Buffer
	for _, n := range []*html.Node{heading, list} {
		if err := renderIndented(&buf, n, 0); err != nil {
			return err
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// CitationNode builds the <li> element for a citation.
func CitationNode(c *cite.Citation) *html.Node {
	li := element(atom.Li, "id", c.Key, "class", c.Class)
	for _, seg := range c.Segments {
		parent := li
		if seg.Class != "" {
			parent = element(atom.Span, "class", seg.Class)
			li.AppendChild(parent)
		}
		for _, p := range seg.Parts {
			parent.AppendChild(partNode(p))
		}
	}
	return li
}

// CitationHTML renders a citation's <li> element on one line.
func CitationHTML(c *cite.Citation) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, CitationNode(c)); err != nil {
		return "", err
	}
	return b.String(), nil
}

func partNode(p cite.Part) *html.Node {
	n := text(p.Text)
	if p.Href != "" {
		a := element(atom.A, "href", p.Href)
		a.AppendChild(n)
		n = a
	}
	if p.Class != "" {
		span := element(atom.Span, "class", p.Class)
		span.AppendChild(n)
		n = span
	}
	return n
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// blockElements get their children on separate, indented lines. Every
// other element is written on a single line.
var blockElements = map[atom.Atom]bool{
	atom.Ol:  true,
	atom.Ul:  true,
	atom.Div: true,
}

func renderIndented(w *bytes.Buffer, n *html.Node, depth int) error {
	indent := strings.Repeat(indentUnit, depth)
	if n.Type != html.ElementNode || !blockElements[n.DataAtom] {
		w.WriteString(indent)
		if err := html.Render(w, n); err != nil {
			return err
		}
		w.WriteString("\n")
		return nil
	}

	w.WriteString(indent)
	writeStartTag(w, n)
	w.WriteString("\n")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := renderIndented(w, c, depth+1); err != nil {
			return err
		}
	}
	w.WriteString(indent + "</" + n.Data + ">\n")
	return nil
}

func writeStartTag(w *bytes.Buffer, n *html.Node) {
	w.WriteString("<" + n.Data)
	for _, a := range n.Attr {
		w.WriteString(" " + a.Key + `="` + html.EscapeString(a.Val) + `"`)
	}
	w.WriteString(">")
}
