package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/bibrender/internal/author"
	"github.com/matsen/bibrender/internal/bibliography"
	"github.com/matsen/bibrender/internal/cite"
	"github.com/matsen/bibrender/internal/config"
	"github.com/matsen/bibrender/internal/reference"
)

// inputFlags are the flags shared by commands that read bibliographies.
type inputFlags struct {
	config    string
	strings   string
	homepages string
	highlight []string
	sort      bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "Config file naming sections (default $"+config.EnvConfig+" or the per-user config)")
	cmd.Flags().StringVar(&f.strings, "strings", "", "BibTeX file of @string macros available to every input")
	cmd.Flags().StringVar(&f.homepages, "homepages", "", "JSON file mapping \"First Last\" to a homepage URL")
	cmd.Flags().StringArrayVar(&f.highlight, "highlight", nil, "Author to highlight as \"First Last\" (can be repeated)")
	cmd.Flags().BoolVar(&f.sort, "sort", false, "Sort each section newest first")
}

// input is everything needed to render a run.
type input struct {
	Config   *config.Config // nil when rendering a single file without --config
	Sections []bibliography.Section
	Cite     *cite.Renderer
	Sort     bool
	Loader   *bibliography.Loader
}

// load reads the input named by args, or the configured sections when
// args is empty. Flags given on the command line override the config.
func (f *inputFlags) load(cmd *cobra.Command, args []string) (*input, error) {
	cfg, err := f.loadConfig(len(args) > 0)
	if err != nil {
		return nil, err
	}

	in := &input{Config: cfg}
	homepagesPath, bibDir := f.homepages, ""
	if cfg != nil {
		if homepagesPath == "" {
			homepagesPath = cfg.Homepages
		}
		bibDir = cfg.BibDir
		in.Sort = cfg.SortEnabled()
	}
	if cmd.Flags().Changed("sort") {
		in.Sort = f.sort
	}

	var stringsText string
	if f.strings != "" || cfg == nil {
		stringsText, err = readStrings(f.strings)
	} else {
		stringsText, err = cfg.ReadStrings()
	}
	if err != nil {
		return nil, err
	}
	homepages, err := config.LoadHomepages(config.ExpandPath(homepagesPath))
	if err != nil {
		return nil, err
	}
	in.Cite = cite.NewRenderer(homepages, f.highlighter(cfg))
	in.Loader = bibliography.NewLoader(bibDir, stringsText, logger)

	if len(args) > 0 {
		s, err := loadArg(cmd, in.Loader, args[0])
		if err != nil {
			return nil, err
		}
		in.Sections = []bibliography.Section{s}
		return in, nil
	}

	in.Sections, err = in.Loader.LoadSections(cfg.Sections)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// loadConfig loads --config, falling back to the default config path when
// there is no file argument. It returns nil when a file argument is given
// without --config.
func (f *inputFlags) loadConfig(haveFile bool) (*config.Config, error) {
	path := f.config
	if path == "" {
		if haveFile {
			return nil, nil
		}
		path = config.DefaultPath()
	}
	if path == "" {
		return nil, &configError{errors.New(config.HelpfulConfigMessage())}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, &configError{err}
	}
	logger.Debug("loaded config",
		zap.String("path", path),
		zap.Int("sections", len(cfg.Sections)))
	return cfg, nil
}

func (f *inputFlags) highlighter(cfg *config.Config) cite.Highlighter {
	switch {
	case len(f.highlight) > 0:
		return cite.NewAuthorSet(f.highlight...)
	case cfg != nil && len(cfg.Highlight) > 0:
		return cite.NewAuthorSet(cfg.Highlight...)
	default:
		return cite.DefaultHighlight()
	}
}

// loadArg loads a single file (or stdin for "-") as one section named
// after the file.
func loadArg(cmd *cobra.Command, l *bibliography.Loader, arg string) (bibliography.Section, error) {
	if arg == "-" {
		entries, err := l.LoadReader("stdin", cmd.InOrStdin())
		return bibliography.Section{Name: "stdin", Entries: entries}, err
	}

	entries, err := l.LoadFile(arg)
	if err != nil {
		return bibliography.Section{}, err
	}
	name := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
	return bibliography.Section{Name: name, Entries: entries}, nil
}

// filterByAuthor keeps the entries in each section with an author matching
// every query. Sections are kept even when they become empty.
func filterByAuthor(sections []bibliography.Section, names []string) []bibliography.Section {
	if len(names) == 0 {
		return sections
	}

	queries := make([]author.Query, 0, len(names))
	for _, n := range names {
		queries = append(queries, author.ParseQuery(n))
	}

	out := make([]bibliography.Section, len(sections))
	for i, s := range sections {
		var kept []reference.Entry
		for _, e := range s.Entries {
			if author.AllMatch(queries, e.Authors) {
				kept = append(kept, e)
			}
		}
		out[i] = bibliography.Section{Name: s.Name, Entries: kept}
	}
	return out
}

func readStrings(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return "", fmt.Errorf("reading strings: %w", err)
	}
	return string(data), nil
}
