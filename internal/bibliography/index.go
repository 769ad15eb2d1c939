package bibliography

import (
	"sort"
	"strings"
)

// Location identifies an entry within a set of sections.
type Location struct {
	Section string `json:"section"`
	Key     string `json:"key"`
}

// Duplicate is a key or DOI shared by more than one entry.
type Duplicate struct {
	Value     string     `json:"value"`
	Locations []Location `json:"locations"`
}

// Index records where each citation key and DOI appears across sections.
type Index struct {
	// Keys maps citation keys to the entries using them
	Keys map[string][]Location
	// DOIs maps normalized DOIs to the entries citing them
	DOIs map[string][]Location
}

// NewIndex indexes every entry of sections.
func NewIndex(sections []Section) *Index {
	idx := &Index{
		Keys: make(map[string][]Location),
		DOIs: make(map[string][]Location),
	}
	for _, s := range sections {
		for _, e := range s.Entries {
			loc := Location{Section: s.Name, Key: e.Key}
			idx.Keys[e.Key] = append(idx.Keys[e.Key], loc)
			if doi, ok := e.Field("doi"); ok {
				if doi = NormalizeDOI(doi); doi != "" {
					idx.DOIs[doi] = append(idx.DOIs[doi], loc)
				}
			}
		}
	}
	return idx
}

// HasEntry returns true if an entry with the DOI or, failing that, the
// citation key is indexed.
func (idx *Index) HasEntry(key, doi string) bool {
	if doi != "" {
		if _, exists := idx.DOIs[NormalizeDOI(doi)]; exists {
			return true
		}
	}
	_, exists := idx.Keys[key]
	return exists
}

// DuplicateDOIs returns DOIs cited by more than one entry, sorted.
func (idx *Index) DuplicateDOIs() []Duplicate {
	return duplicates(idx.DOIs)
}

// DuplicateKeys returns citation keys used in more than one section, sorted.
func (idx *Index) DuplicateKeys() []Duplicate {
	return duplicates(idx.Keys)
}

func duplicates(m map[string][]Location) []Duplicate {
	var out []Duplicate
	for value, locs := range m {
		if len(locs) > 1 {
			out = append(out, Duplicate{Value: value, Locations: locs})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// NormalizeDOI normalizes a DOI for comparison.
// Removes common prefixes like "https://doi.org/" and lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "https://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(strings.TrimSpace(doi))
}
