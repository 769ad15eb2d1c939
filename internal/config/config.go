// Package config handles bibrender configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config describes a sectioned rendering run.
type Config struct {
	BibDir    string   `yaml:"bibdir" toml:"bibdir"`                 // Base directory for section files
	Strings   string   `yaml:"strings,omitempty" toml:"strings"`     // Optional @string macro file
	Homepages string   `yaml:"homepages,omitempty" toml:"homepages"` // Optional JSON author homepage index
	Highlight []string `yaml:"highlight,omitempty" toml:"highlight"` // Author keys to highlight
	Sort      *bool    `yaml:"sort,omitempty" toml:"sort"`
	Format    string   `yaml:"format,omitempty" toml:"format"` // bibtex, html or jsonl
	Sections  Sections `yaml:"sections" toml:"sections"`
}

// SectionSpec names a section and the files it is built from. File names
// are relative to the bib directory and may be glob patterns.
type SectionSpec struct {
	Name  string   `yaml:"name" toml:"name"`
	Files []string `yaml:"files" toml:"files"`
}

// Sections is the ordered list of sections in a config.
type Sections []SectionSpec

// Formats lists the supported output formats.
var Formats = []string{"bibtex", "html", "jsonl"}

// ErrUnsupportedFile is returned for config files with an unknown extension.
var ErrUnsupportedFile = errors.New("unsupported config file type")

// UnmarshalYAML accepts either a mapping from section name to files, whose
// key order is kept, or a list of {name, files} records. A section's files
// may be a single string.
func (s *Sections) UnmarshalYAML(value *yaml.Node) error {
	var out Sections
	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			files, err := decodeFiles(value.Content[i+1])
			if err != nil {
				return fmt.Errorf("section %q: %w", value.Content[i].Value, err)
			}
			out = append(out, SectionSpec{Name: value.Content[i].Value, Files: files})
		}
	case yaml.SequenceNode:
		for _, item := range value.Content {
			var raw struct {
				Name  string    `yaml:"name"`
				Files yaml.Node `yaml:"files"`
			}
			if err := item.Decode(&raw); err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			files, err := decodeFiles(&raw.Files)
			if err != nil {
				return fmt.Errorf("section %q: %w", raw.Name, err)
			}
			out = append(out, SectionSpec{Name: raw.Name, Files: files})
		}
	default:
		return fmt.Errorf("line %d: sections must be a mapping or a list", value.Line)
	}
	*s = out
	return nil
}

func decodeFiles(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Value == "" {
			return nil, nil
		}
		return []string{node.Value}, nil
	default:
		var files []string
		if err := node.Decode(&files); err != nil {
			return nil, err
		}
		return files, nil
	}
}

// Load reads a config file. YAML (.yaml, .yml), JSON (.json) and TOML
// (.toml) are supported. Relative paths in the file are resolved against
// the directory containing it.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	cfg.resolvePaths(dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes config data in the format named by ext.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", ".json":
		// JSON is a subset of YAML, and decoding through yaml.v3 keeps
		// the declared order of a sections mapping.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	resolve := func(p string) string {
		if p == "" {
			return ""
		}
		p = ExpandPath(p)
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	if c.BibDir == "" {
		c.BibDir = dir
	} else {
		c.BibDir = resolve(c.BibDir)
	}
	c.Strings = resolve(c.Strings)
	c.Homepages = resolve(c.Homepages)
}

// Validate checks that the config describes at least one well-formed section.
func (c *Config) Validate() error {
	if len(c.Sections) == 0 {
		return errors.New("no sections configured")
	}

	seen := make(map[string]bool)
	for i, s := range c.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("section %d has no name", i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate section %q", s.Name)
		}
		seen[s.Name] = true
		if len(s.Files) == 0 {
			return fmt.Errorf("section %q lists no files", s.Name)
		}
	}

	return ValidateFormat(c.Format)
}

// ValidateFormat checks that format is empty or a supported output format.
func ValidateFormat(format string) error {
	if format == "" {
		return nil
	}
	for _, f := range Formats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s (valid: %v)", format, Formats)
}

// SortEnabled reports whether sections should be sorted by date. Sorting
// is off unless the config turns it on.
func (c *Config) SortEnabled() bool {
	return c.Sort != nil && *c.Sort
}

// ReadStrings returns the contents of the configured macro file, or an
// empty string when none is configured.
func (c *Config) ReadStrings() (string, error) {
	if c.Strings == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Strings)
	if err != nil {
		return "", fmt.Errorf("reading strings: %w", err)
	}
	return string(data), nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
