package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/bibrender/internal/cite"
)

// LoadHomepages reads a JSON object mapping "First Last" author keys to
// homepage URLs. An empty path yields an empty index.
func LoadHomepages(path string) (cite.Homepages, error) {
	if path == "" {
		return cite.Homepages{}, nil
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("reading homepages: %w", err)
	}

	var h cite.Homepages
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing homepages %s: %w", path, err)
	}
	if h == nil {
		h = cite.Homepages{}
	}
	return h, nil
}
