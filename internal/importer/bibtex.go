// Package importer provides functions to import references from external formats.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/bibrender/internal/reference"
)

// Library is the result of parsing a BibTeX/BibLaTeX text stream.
type Library struct {
	Entries   []reference.Entry
	Strings   map[string]string // @string macros, keyed by lowercase name
	Comments  []string
	Preambles []string
	Failed    []FailedBlock
	Blocks    int
}

// FailedBlock is a block that could not be parsed. It is excluded from
// Entries; the rest of the input is still parsed.
type FailedBlock struct {
	Line          int
	DuplicateKeys []string
	Raw           string
	Err           error
}

// Stats summarizes a parsed library.
type Stats struct {
	Blocks    int `json:"blocks"`
	Entries   int `json:"entries"`
	Comments  int `json:"comments"`
	Strings   int `json:"strings"`
	Preambles int `json:"preambles"`
	Failures  int `json:"failures"`
}

// Stats returns block counts for the library.
func (l *Library) Stats() Stats {
	return Stats{
		Blocks:    l.Blocks,
		Entries:   len(l.Entries),
		Comments:  len(l.Comments),
		Strings:   len(l.Strings),
		Preambles: len(l.Preambles),
		Failures:  len(l.Failed),
	}
}

// ErrDuplicateKey is wrapped by failures caused by a repeated citation key.
var ErrDuplicateKey = errors.New("duplicate citation key")

type duplicateKeyError struct {
	key string
}

func (e *duplicateKeyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDuplicateKey, e.key)
}

func (e *duplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// ParseBibTeX parses BibTeX text into a Library. It never fails as a whole:
// malformed blocks are collected in Library.Failed.
func ParseBibTeX(text string) *Library {
	return ParseBibTeXWithStrings(text, nil)
}

// ParseBibTeXWithStrings parses text with a set of predefined macros.
func ParseBibTeXWithStrings(text string, macros map[string]string) *Library {
	p := &parser{
		src:  text,
		keys: make(map[string]bool),
		lib:  &Library{Strings: make(map[string]string)},
	}
	for k, v := range macros {
		p.lib.Strings[strings.ToLower(k)] = v
	}
	p.run()
	return p.lib
}

type parser struct {
	src  string
	pos  int
	keys map[string]bool
	lib  *Library
}

func (p *parser) run() {
	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return
		}
		start := p.pos + at
		p.pos = start + 1
		if !isIdentChar(p.peek()) {
			continue // Stray @ in an implicit comment
		}

		p.lib.Blocks++
		line := 1 + strings.Count(p.src[:start], "\n")
		err := p.parseBlock(line)
		if err == nil {
			continue
		}

		fb := FailedBlock{Line: line, Err: err}
		var dup *duplicateKeyError
		if errors.As(err, &dup) {
			fb.DuplicateKeys = []string{dup.key}
		} else {
			p.pos = p.resync(start + 1)
		}
		fb.Raw = strings.TrimSpace(p.src[start:p.pos])
		p.lib.Failed = append(p.lib.Failed, fb)
	}
}

// resync returns the offset of the next @ that starts a line.
func (p *parser) resync(from int) int {
	for i := from; i < len(p.src); i++ {
		if p.src[i] != '@' {
			continue
		}
		j := i - 1
		for j >= 0 && (p.src[j] == ' ' || p.src[j] == '\t') {
			j--
		}
		if j < 0 || p.src[j] == '\n' || p.src[j] == '\r' {
			return i
		}
	}
	return len(p.src)
}

func (p *parser) parseBlock(line int) error {
	typ := p.readIdent()
	p.skipSpace()
	open := p.peek()
	var closer byte
	switch open {
	case '{':
		closer = '}'
	case '(':
		closer = ')'
	default:
		return fmt.Errorf("expected { or ( after @%s", typ)
	}
	p.pos++

	switch strings.ToLower(typ) {
	case "comment":
		body, err := p.readBody(open, closer)
		if err != nil {
			return err
		}
		p.lib.Comments = append(p.lib.Comments, strings.TrimSpace(body))
		return nil
	case "preamble":
		p.skipSpace()
		v, _, _, err := p.readValue()
		if err != nil {
			return err
		}
		p.skipSpace()
		if err := p.expect(closer); err != nil {
			return err
		}
		p.lib.Preambles = append(p.lib.Preambles, v)
		return nil
	case "string":
		return p.parseString(closer)
	}
	return p.parseEntry(typ, closer, line)
}

func (p *parser) parseString(closer byte) error {
	p.skipSpace()
	name := p.readIdent()
	if name == "" {
		return fmt.Errorf("missing @string name")
	}
	p.skipSpace()
	if err := p.expect('='); err != nil {
		return err
	}
	v, _, _, err := p.readValue()
	if err != nil {
		return fmt.Errorf("@string %s: %w", name, err)
	}
	p.skipSpace()
	if err := p.expect(closer); err != nil {
		return err
	}
	p.lib.Strings[strings.ToLower(name)] = v
	return nil
}

func (p *parser) parseEntry(typ string, closer byte, line int) error {
	p.skipSpace()
	keyStart := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ',' || c == closer || isSpace(c) {
			break
		}
		p.pos++
	}
	key := p.src[keyStart:p.pos]
	if key == "" {
		return fmt.Errorf("@%s: missing citation key", typ)
	}

	entry := reference.Entry{
		Key:     key,
		Type:    reference.ParseEntryType(typ),
		RawType: strings.ToLower(typ),
		Line:    line,
	}
	seen := make(map[string]bool)

	p.skipSpace()
	if p.peek() == closer {
		p.pos++
		return p.addEntry(entry)
	}
	if err := p.expect(','); err != nil {
		return fmt.Errorf("entry %s: %w", key, err)
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return fmt.Errorf("entry %s: unexpected end of input", key)
		}
		if p.peek() == closer {
			p.pos++
			break
		}

		name := strings.ToLower(p.readIdent())
		if name == "" {
			return fmt.Errorf("entry %s: malformed field at offset %d", key, p.pos)
		}
		p.skipSpace()
		if err := p.expect('='); err != nil {
			return fmt.Errorf("entry %s field %s: %w", key, name, err)
		}
		value, segments, bare, err := p.readValue()
		if err != nil {
			return fmt.Errorf("entry %s field %s: %w", key, name, err)
		}
		if seen[name] {
			return fmt.Errorf("entry %s: duplicate field %s", key, name)
		}
		seen[name] = true
		entry.Fields = append(entry.Fields, reference.Field{Name: name, Value: value, Bare: bare, Segments: segments})

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case closer:
			p.pos++
		default:
			return fmt.Errorf("entry %s: expected , or %c after field %s", key, closer, name)
		}
		break
	}

	if raw, ok := entry.Field("author"); ok {
		entry.Authors = SplitAuthors(raw)
	}
	return p.addEntry(entry)
}

func (p *parser) addEntry(e reference.Entry) error {
	if p.keys[e.Key] {
		return &duplicateKeyError{key: e.Key}
	}
	p.keys[e.Key] = true
	p.lib.Entries = append(p.lib.Entries, e)
	return nil
}

// readValue reads a field value: braced or quoted strings, numbers, and
// macro names joined by #. If a macro is undefined the raw expression is
// returned with bare set. A resolved concatenation also returns its parts.
func (p *parser) readValue() (value string, segments []string, bare bool, err error) {
	p.skipSpace()
	start := p.pos
	var parts []string
	resolved := true

	for {
		p.skipSpace()
		c := p.peek()
		switch {
		case c == '{':
			s, err := p.readDelimited('{', '}')
			if err != nil {
				return "", nil, false, err
			}
			parts = append(parts, s)
		case c == '"':
			s, err := p.readQuoted()
			if err != nil {
				return "", nil, false, err
			}
			parts = append(parts, s)
		case isDigit(c):
			n := p.pos
			for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
				p.pos++
			}
			parts = append(parts, p.src[n:p.pos])
		case isIdentChar(c):
			name := p.readIdent()
			if v, ok := p.lib.Strings[strings.ToLower(name)]; ok {
				parts = append(parts, v)
			} else {
				resolved = false
			}
		case p.pos >= len(p.src):
			return "", nil, false, fmt.Errorf("unexpected end of input")
		default:
			return "", nil, false, fmt.Errorf("unexpected %q in value", c)
		}

		p.skipSpace()
		if p.peek() != '#' {
			break
		}
		p.pos++
	}

	if !resolved {
		return strings.TrimSpace(p.src[start:p.pos]), nil, true, nil
	}
	if len(parts) > 1 {
		segments = parts
	}
	return strings.Join(parts, ""), segments, false, nil
}

// readDelimited reads a balanced {...} group and returns its contents.
func (p *parser) readDelimited(open, closer byte) (string, error) {
	start := p.pos + 1
	depth := 0
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos++ // Escaped brace does not count
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				s := p.src[start:p.pos]
				p.pos++
				return s, nil
			}
		}
		p.pos++
	}
	return "", fmt.Errorf("unbalanced braces")
}

// readBody reads the rest of a block whose opening delimiter was consumed.
func (p *parser) readBody(open, closer byte) (string, error) {
	p.pos--
	return p.readDelimited(open, closer)
}

func (p *parser) readQuoted() (string, error) {
	start := p.pos + 1
	depth := 0
	for p.pos++; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '\\':
			p.pos++
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				s := p.src[start:p.pos]
				p.pos++
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("unterminated quoted string")
}

func (p *parser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		if p.pos >= len(p.src) {
			return fmt.Errorf("expected %q, got end of input", c)
		}
		return fmt.Errorf("expected %q, got %q", c, p.src[p.pos])
	}
	p.pos++
	return nil
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isIdentChar matches BibTeX identifier characters: anything printable
// except the delimiters "#%'(),={} and whitespace.
func isIdentChar(c byte) bool {
	if c <= ' ' || c == 0x7f {
		return false
	}
	return !strings.ContainsRune("\"#%'(),={}@", rune(c))
}
