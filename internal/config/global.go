package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// EnvConfig names the environment variable that overrides the default
	// config path.
	EnvConfig = "BIBRENDER_CONFIG"
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bibrender"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// GlobalConfigPath returns the path to the per-user config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibrender/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// DefaultPath returns the config file to use when none is given: the
// value of $BIBRENDER_CONFIG (which may come from a .env file in the
// working directory), else the per-user config file if it exists. It
// returns "" when there is no default.
func DefaultPath() string {
	_ = godotenv.Load()

	if p := os.Getenv(EnvConfig); p != "" {
		return ExpandPath(p)
	}
	p := GlobalConfigPath()
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// HelpfulConfigMessage explains how to set up a config file.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No input given and no config file found.

Either pass a BibTeX file (or - for stdin), use --config, set $%s, or create %s:
  bibdir: /path/to/bibs
  sections:
    Journal papers: [journal.bib]
    Conference papers: [conference.bib]`,
		EnvConfig, configPath)
}
