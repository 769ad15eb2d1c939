package importer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Combining marks for LaTeX accent commands.
var accents = map[string]rune{
	`'`: '\u0301',
	"`": '\u0300',
	"^": '\u0302',
	`"`: '\u0308',
	"~": '\u0303',
	"=": '\u0304',
	".": '\u0307',
	"u": '\u0306',
	"v": '\u030C',
	"H": '\u030B',
	"c": '\u0327',
	"r": '\u030A',
	"k": '\u0328',
	"d": '\u0323',
	"b": '\u0331',
}

var symbols = map[string]string{
	"ss":              "ß",
	"o":               "ø",
	"O":               "Ø",
	"ae":              "æ",
	"AE":              "Æ",
	"oe":              "œ",
	"OE":              "Œ",
	"aa":              "å",
	"AA":              "Å",
	"l":               "ł",
	"L":               "Ł",
	"i":               "ı",
	"j":               "ȷ",
	"textendash":      "–",
	"textemdash":      "—",
	"ldots":           "…",
	"dots":            "…",
	"textasciitilde":  "~",
	"textasciicircum": "^",
	"textbackslash":   `\`,
	"textquoteleft":   "‘",
	"textquoteright":  "’",
	"textquotedbl":    `"`,
	"S":               "§",
	"P":               "¶",
	"copyright":       "©",
	"pounds":          "£",
	"LaTeX":           "LaTeX",
	"TeX":             "TeX",
}

// DecodeLaTeX converts LaTeX markup in a field value to plain Unicode.
// Accents become composed characters, escaped specials become literals,
// grouping braces are dropped and unknown commands keep their argument.
func DecodeLaTeX(s string) string {
	if !strings.ContainsAny(s, "\\{}~-`'$") {
		return s
	}
	var b strings.Builder
	decodeInto(&b, s)
	return norm.NFC.String(b.String())
}

func decodeInto(b *strings.Builder, s string) {
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\':
			i = decodeCommand(b, s, i+1)
		case c == '{' || c == '}' || c == '$':
			i++
		case c == '~':
			b.WriteRune('\u00a0')
			i++
		case strings.HasPrefix(s[i:], "---"):
			b.WriteString("—")
			i += 3
		case strings.HasPrefix(s[i:], "--"):
			b.WriteString("–")
			i += 2
		case strings.HasPrefix(s[i:], "``"):
			b.WriteString("“")
			i += 2
		case strings.HasPrefix(s[i:], "''"):
			b.WriteString("”")
			i += 2
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
		}
	}
}

// decodeCommand decodes the control sequence starting at s[i] (just after
// the backslash) and returns the offset after it.
func decodeCommand(b *strings.Builder, s string, i int) int {
	if i >= len(s) {
		return i
	}

	c := s[i]
	if strings.IndexByte(`&%$#_{}`, c) >= 0 {
		b.WriteByte(c)
		return i + 1
	}
	if c == '\\' || c == ' ' {
		b.WriteByte(' ')
		return i + 1
	}
	if mark, ok := accents[string(c)]; ok && !isASCIILetter(c) {
		arg, next := readArgument(s, i+1, false)
		writeAccented(b, arg, mark)
		return next
	}
	if !isASCIILetter(c) {
		b.WriteByte(c)
		return i + 1
	}

	j := i
	for j < len(s) && isASCIILetter(s[j]) {
		j++
	}
	name := s[i:j]

	if mark, ok := accents[name]; ok {
		arg, next := readArgument(s, j, true)
		writeAccented(b, arg, mark)
		return next
	}

	// Control words swallow the following spaces and an empty {} group.
	next := j
	for next < len(s) && s[next] == ' ' {
		next++
	}
	if strings.HasPrefix(s[next:], "{}") {
		next += 2
	}
	if sym, ok := symbols[name]; ok {
		b.WriteString(sym)
		return next
	}
	// Unknown command (\emph, \textbf, \url ...): drop it, keep the argument.
	return j
}

// readArgument reads a single-character or braced accent argument.
func readArgument(s string, i int, skipSpace bool) (string, int) {
	if skipSpace {
		for i < len(s) && s[i] == ' ' {
			i++
		}
	}
	if i >= len(s) {
		return "", i
	}
	if s[i] == '{' {
		depth := 0
		for j := i; j < len(s); j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					var inner strings.Builder
					decodeInto(&inner, s[i+1:j])
					return inner.String(), j + 1
				}
			}
		}
		return s[i+1:], len(s)
	}
	if s[i] == '\\' {
		var inner strings.Builder
		next := decodeCommand(&inner, s, i+1)
		return inner.String(), next
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return s[i : i+size], i + size
}

func writeAccented(b *strings.Builder, arg string, mark rune) {
	r, size := utf8.DecodeRuneInString(arg)
	if size == 0 {
		b.WriteRune(mark)
		return
	}
	switch r {
	case 'ı':
		r = 'i'
	case 'ȷ':
		r = 'j'
	}
	b.WriteRune(r)
	b.WriteRune(mark)
	b.WriteString(arg[size:])
}

func isASCIILetter(c byte) bool {
	return c < utf8.RuneSelf && unicode.IsLetter(rune(c))
}
