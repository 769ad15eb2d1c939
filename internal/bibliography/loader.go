// Package bibliography groups parsed entries into named sections.
package bibliography

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/matsen/bibrender/internal/config"
	"github.com/matsen/bibrender/internal/importer"
	"github.com/matsen/bibrender/internal/reference"
)

// Section is a named, ordered group of entries.
type Section struct {
	Name    string
	Entries []reference.Entry
}

// Loader reads BibTeX files into sections.
type Loader struct {
	BibDir      string // Base directory for relative file names
	StringsText string // @string definitions available to every file
	Logger      *zap.Logger

	// Failed collects every block that failed to parse, across all loads.
	Failed []Failure

	macros map[string]string
}

// Failure is a block that could not be parsed, with the source it came from.
type Failure struct {
	Source string
	importer.FailedBlock
}

// NewLoader returns a Loader. A nil logger discards all output.
func NewLoader(bibDir, stringsText string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{BibDir: bibDir, StringsText: stringsText, Logger: logger}
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		l.Logger = zap.NewNop()
	}
	return l.Logger
}

// Macros returns the @string definitions parsed from StringsText.
func (l *Loader) Macros() map[string]string {
	if l.macros == nil {
		l.macros = importer.ParseBibTeX(l.StringsText).Strings
	}
	return l.macros
}

// Parse parses BibTeX text, logging its block counts and any blocks that
// failed to parse. name identifies the source in log output.
func (l *Loader) Parse(name, text string) *importer.Library {
	return l.parse(name, text, nil)
}

// span is one file's place in a section's concatenated text.
type span struct {
	path  string
	first int // line of the file's first line in the concatenation
}

// locate maps a line of concatenated text back to its file and line.
func locate(spans []span, line int) (string, int) {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].first > line }) - 1
	if i < 0 {
		return "", line
	}
	return spans[i].path, line - spans[i].first + 1
}

func (l *Loader) parse(name, text string, spans []span) *importer.Library {
	lib := importer.ParseBibTeXWithStrings(text, l.Macros())
	stats := lib.Stats()

	log := l.logger()
	log.Info("STATS",
		zap.String("source", name),
		zap.Int("blocks", stats.Blocks),
		zap.Int("entries", stats.Entries),
		zap.Int("comments", stats.Comments),
		zap.Int("strings", stats.Strings),
		zap.Int("preambles", stats.Preambles),
		zap.Int("failures", stats.Failures))

	if spans != nil {
		for i := range lib.Entries {
			_, lib.Entries[i].Line = locate(spans, lib.Entries[i].Line)
		}
	}
	for _, f := range lib.Failed {
		source := name
		if spans != nil {
			source, f.Line = locate(spans, f.Line)
		}
		l.Failed = append(l.Failed, Failure{Source: source, FailedBlock: f})
		log.Warn("failed block",
			zap.String("source", source),
			zap.Int("line", f.Line),
			zap.Strings("duplicate_keys", f.DuplicateKeys),
			zap.Error(f.Err),
			zap.String("raw", f.Raw))
	}
	return lib
}

// LoadReader parses everything readable from r.
func (l *Loader) LoadReader(name string, r io.Reader) ([]reference.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return l.Parse(name, string(data)).Entries, nil
}

// LoadFile parses a single file. The file is read completely and closed
// before parsing.
func (l *Loader) LoadFile(path string) ([]reference.Entry, error) {
	return l.load(l.resolve(path))
}

func (l *Loader) load(path string) ([]reference.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return l.Parse(path, string(data)).Entries, nil
}

// LoadSection loads the named section from files, in order. Each name may
// be a glob pattern. The files are parsed as one text, so @string
// definitions carry over to later files and a key repeated anywhere in the
// section is a failed block.
func (l *Loader) LoadSection(name string, files []string) (Section, error) {
	var (
		text  strings.Builder
		spans []span
		line  = 1
	)
	for _, pattern := range files {
		paths, err := l.expand(pattern)
		if err != nil {
			return Section{}, err
		}
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return Section{}, fmt.Errorf("reading bibliography: %w", err)
			}
			spans = append(spans, span{path: path, first: line})
			text.Write(data)
			text.WriteByte('\n')
			line += strings.Count(string(data), "\n") + 1
		}
	}

	lib := l.parse(name, text.String(), spans)
	return Section{Name: name, Entries: lib.Entries}, nil
}

// LoadSections loads sections in their declared order.
func (l *Loader) LoadSections(specs []config.SectionSpec) ([]Section, error) {
	sections := make([]Section, 0, len(specs))
	for _, spec := range specs {
		s, err := l.LoadSection(spec.Name, spec.Files)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", spec.Name, err)
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func (l *Loader) resolve(path string) string {
	path = config.ExpandPath(path)
	if l.BibDir != "" && !filepath.IsAbs(path) {
		return filepath.Join(l.BibDir, path)
	}
	return path
}

// expand returns the resolved files matched by pattern. A pattern without
// glob metacharacters is returned as is so a missing file is reported on
// read.
func (l *Loader) expand(pattern string) ([]string, error) {
	path := l.resolve(pattern)
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{path}, nil
	}
	matches, err := filepath.Glob(path)
	if err != nil {
		return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		l.logger().Warn("pattern matched no files", zap.String("pattern", pattern))
	}
	return matches, nil
}
