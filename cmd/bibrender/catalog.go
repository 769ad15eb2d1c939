package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/bibrender/internal/bibliography"
	"github.com/matsen/bibrender/internal/cite"
	"github.com/matsen/bibrender/internal/export"
	"github.com/matsen/bibrender/internal/storage"
)

var (
	catalogInput inputFlags
	catalogDB    string
	catalogJSONL string
)

func init() {
	catalogInput.register(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogDB, "db", "", "SQLite catalog to (re)build")
	catalogCmd.Flags().StringVar(&catalogJSONL, "jsonl", "", "Also write the records to this JSONL file")
	catalogCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [file|-] --db PATH",
	Short: "Build a searchable SQLite catalog of rendered citations",
	Long: `Render every entry and store the results in a SQLite catalog with
full-text search, replacing its previous contents. Query the catalog with
'bibrender search'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

// CatalogResult is the response for the catalog command.
type CatalogResult struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
	DB      string `json:"db"`
	JSONL   string `json:"jsonl,omitempty"`
}

func runCatalog(cmd *cobra.Command, args []string) error {
	in, err := catalogInput.load(cmd, args)
	exitOnError(err)

	records, err := buildRecords(in.Sections, in.Cite, in.Sort)
	exitOnError(err)

	if catalogJSONL != "" {
		if err := storage.WriteRecords(catalogJSONL, records); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	db, err := storage.OpenDB(catalogDB)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	n, err := db.Rebuild(records)
	if err != nil {
		exitWithError(ExitError, "rebuilding catalog: %v", err)
	}
	logger.Info("catalog rebuilt", zap.String("db", catalogDB), zap.Int("records", n))

	result := CatalogResult{Status: "rebuilt", Records: n, DB: catalogDB, JSONL: catalogJSONL}
	if humanOutput {
		outputHuman("Catalogued %d citations in %s\n", n, catalogDB)
		return nil
	}
	return outputJSON(result)
}

// buildRecords renders every entry of every section into catalog records.
func buildRecords(sections []bibliography.Section, c *cite.Renderer, sort bool) ([]export.Record, error) {
	var records []export.Record
	for _, s := range sections {
		if sort {
			if err := bibliography.SortByDate(s.Entries); err != nil {
				return nil, fmt.Errorf("section %q: %w", s.Name, err)
			}
		}
		for _, e := range s.Entries {
			citation, err := c.Render(e)
			if err != nil {
				return nil, fmt.Errorf("section %q: %w", s.Name, err)
			}
			rec, err := export.NewRecord(s.Name, e, citation)
			if err != nil {
				return nil, fmt.Errorf("section %q: %w", s.Name, err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}
