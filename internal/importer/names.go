package importer

import (
	"strings"
	"unicode"

	"github.com/matsen/bibrender/internal/reference"
)

// SplitAuthors splits a raw BibTeX author field into names. Co-authors are
// separated by a top-level "and"; braces protect their contents.
func SplitAuthors(raw string) reference.AuthorList {
	var authors reference.AuthorList
	var group []string

	flush := func() {
		if len(group) == 0 {
			return
		}
		if a, ok := SplitName(strings.Join(group, " ")); ok {
			authors = append(authors, a)
		}
		group = nil
	}

	for _, word := range topLevelFields(raw) {
		if strings.EqualFold(word, "and") {
			flush()
			continue
		}
		group = append(group, word)
	}
	flush()

	return authors
}

// SplitName splits one name into first/von/last/jr parts. It accepts the
// three BibTeX forms:
//
//	First von Last
//	von Last, First
//	von Last, Jr, First
func SplitName(name string) (reference.Author, bool) {
	parts := splitTopLevelCommas(name)
	var a reference.Author

	switch len(parts) {
	case 0:
		return a, false
	case 1:
		words := topLevelFields(parts[0])
		n := len(words)
		if n == 0 {
			return a, false
		}
		if n == 1 {
			a.Last = words
			return a, true
		}
		vonStart, vonEnd := -1, -1
		for i := 0; i < n-1; i++ {
			if isVonWord(words[i]) {
				if vonStart < 0 {
					vonStart = i
				}
				vonEnd = i
			}
		}
		if vonStart < 0 {
			a.First = words[:n-1]
			a.Last = words[n-1:]
		} else {
			a.First = nilIfEmpty(words[:vonStart])
			a.Von = words[vonStart : vonEnd+1]
			a.Last = words[vonEnd+1:]
		}
	case 2:
		a.Von, a.Last = splitVonLast(topLevelFields(parts[0]))
		a.First = nilIfEmpty(topLevelFields(parts[1]))
	default:
		a.Von, a.Last = splitVonLast(topLevelFields(parts[0]))
		a.Jr = nilIfEmpty(topLevelFields(parts[1]))
		a.First = nilIfEmpty(topLevelFields(strings.Join(parts[2:], " ")))
	}

	if len(a.Last) == 0 {
		return a, false
	}
	return a, true
}

func splitVonLast(words []string) (von, last []string) {
	n := len(words)
	if n == 0 {
		return nil, nil
	}
	if !isVonWord(words[0]) || n == 1 {
		return nil, words
	}
	end := 0
	for i := 1; i < n-1; i++ {
		if isVonWord(words[i]) {
			end = i
		}
	}
	return words[:end+1], words[end+1:]
}

// isVonWord reports whether the first letter of a word is lowercase. A
// word starting with a brace group is caseless unless the group begins
// with a control sequence, as in {\'e}.
func isVonWord(word string) bool {
	if strings.HasPrefix(word, "{") && !strings.HasPrefix(word, `{\`) {
		return false
	}
	for _, r := range word {
		if unicode.IsLetter(r) {
			return unicode.IsLower(r)
		}
	}
	return false
}

// topLevelFields splits s on whitespace outside braces.
func topLevelFields(s string) []string {
	var words []string
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '{':
			depth++
		case r == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && unicode.IsSpace(r):
			if b.Len() > 0 {
				words = append(words, b.String())
				b.Reset()
			}
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return words
}

// splitTopLevelCommas splits s on commas outside braces, trimming parts.
func splitTopLevelCommas(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
