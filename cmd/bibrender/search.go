package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/bibrender/internal/author"
	"github.com/matsen/bibrender/internal/export"
	"github.com/matsen/bibrender/internal/storage"
)

var (
	searchDB      string
	searchLimit   int
	searchAuthors []string
)

func init() {
	searchCmd.Flags().StringVar(&searchDB, "db", "", "SQLite catalog built by 'bibrender catalog'")
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().StringArrayVarP(&searchAuthors, "author", "a", nil, "Search by author name (can be repeated, uses AND logic)")
	searchCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query] --db PATH",
	Short: "Search a citation catalog by keyword or author",
	Long: `Search a catalog built by 'bibrender catalog'.

The query is matched against section names, titles, authors and the
rendered citation text. Results are newest first.

Author matching uses the last name exactly and the first name as a
prefix, so "Tim Yu" matches "Timothy C Yu" but "Yu" does not match "Yujia".

Examples:
  bibrender search --db cat.db "edge computing"
  bibrender search --db cat.db -a "Mortier, R" -a Crowcroft`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(searchAuthors) == 0 {
		exitWithError(ExitError, "give a query or at least one --author")
	}
	if _, err := os.Stat(searchDB); errors.Is(err, os.ErrNotExist) {
		exitWithError(ExitConfigError, "catalog %s not found\n\nRun 'bibrender catalog --db %s' to create it.", searchDB, searchDB)
	}

	db, err := storage.OpenDB(searchDB)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	records, err := searchCatalog(db, query, searchAuthors, searchLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		printRecordsHuman(records)
		return nil
	}
	if records == nil {
		records = []export.Record{}
	}
	return outputJSON(records)
}

// searchCatalog runs a keyword search, an author search, or both, keeping
// records that match every author. A limit of zero or less is unlimited.
func searchCatalog(db *storage.DB, query string, authors []string, limit int) ([]export.Record, error) {
	var candidates []export.Record
	var err error
	switch {
	case query != "":
		candidates, err = db.Search(query, 0)
	case len(authors) > 0:
		candidates, err = db.SearchByAuthor(authors[0], 0)
	}
	if err != nil {
		return nil, err
	}

	queries := make([]author.Query, 0, len(authors))
	for _, a := range authors {
		queries = append(queries, author.ParseQuery(a))
	}

	var out []export.Record
	for _, rec := range candidates {
		if limit > 0 && len(out) >= limit {
			break
		}
		if recordMatches(rec, queries) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func recordMatches(rec export.Record, queries []author.Query) bool {
	for _, q := range queries {
		found := false
		for _, name := range rec.Authors {
			if q.MatchesName(name) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func printRecordsHuman(records []export.Record) {
	if len(records) == 0 {
		outputHuman("No citations found\n")
		return
	}
	for i, r := range records {
		outputHuman("%d. [%s] %s (%s)\n", i+1, r.Section, r.Key, r.Date)
		outputHuman("   %s\n\n", truncateString(r.Text, 200))
	}
}
