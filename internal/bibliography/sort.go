package bibliography

import (
	"sort"

	"github.com/matsen/bibrender/internal/cite"
	"github.com/matsen/bibrender/internal/reference"
)

type datedEntry struct {
	sortKey string
	entry   reference.Entry
}

// SortByDate orders entries newest first by their date sort key. Entries
// with equal keys keep their relative order. If any entry has no usable
// date the slice is left untouched and the first error is returned.
func SortByDate(entries []reference.Entry) error {
	dated := make([]datedEntry, len(entries))
	for i, e := range entries {
		d, err := cite.NormalizeDate(e)
		if err != nil {
			return err
		}
		dated[i] = datedEntry{sortKey: d.SortKey, entry: e}
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].sortKey > dated[j].sortKey
	})
	for i := range dated {
		entries[i] = dated[i].entry
	}
	return nil
}
