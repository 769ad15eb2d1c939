package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/bibrender/internal/bibliography"
	"github.com/matsen/bibrender/internal/cite"
)

var checkInput inputFlags

func init() {
	checkInput.register(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [file|-]",
	Short: "Check that every entry parses and has a usable date",
	Long: `Parse the input and normalize every entry's date without rendering.

Blocks that fail to parse are reported as warnings. Entries without a
usable date are errors and make check exit with status 3.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status   string       `json:"status"`
	Sections int          `json:"sections"`
	Entries  int          `json:"entries"`
	Issues   []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Type    string `json:"type"`
	Section string `json:"section,omitempty"`
	Key     string `json:"key,omitempty"`
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line,omitempty"`
	Reason  string `json:"reason"`

	Locations []bibliography.Location `json:"locations,omitempty"`
}

// Issue types
const (
	IssueParseFailure = "parse_failure"
	IssueBadDate      = "bad_date"
	IssueDuplicateDOI = "duplicate_doi"
	IssueDuplicateKey = "duplicate_key"
)

func runCheck(cmd *cobra.Command, args []string) error {
	in, err := checkInput.load(cmd, args)
	exitOnError(err)

	result := checkSections(in.Sections, in.Loader.Failed)

	if humanOutput {
		printCheckHuman(result)
	} else {
		outputJSON(result)
	}

	if result.Status == "error" {
		logger.Sync() //nolint:errcheck
		os.Exit(ExitDataError)
	}
	return nil
}

// checkSections reports parse failures, keys and DOIs shared between
// entries, and entries whose date cannot be normalized. Status is "ok",
// "warning" (no date errors) or "error".
func checkSections(sections []bibliography.Section, failed []bibliography.Failure) CheckResult {
	result := CheckResult{Status: "ok", Sections: len(sections), Issues: []CheckIssue{}}

	for _, f := range failed {
		reason := "unparseable block"
		if f.Err != nil {
			reason = f.Err.Error()
		}
		result.Issues = append(result.Issues, CheckIssue{
			Type:   IssueParseFailure,
			Source: f.Source,
			Line:   f.Line,
			Reason: reason,
		})
	}

	idx := bibliography.NewIndex(sections)
	for _, d := range idx.DuplicateKeys() {
		result.Issues = append(result.Issues, CheckIssue{
			Type:      IssueDuplicateKey,
			Key:       d.Value,
			Reason:    fmt.Sprintf("key used in %d sections", len(d.Locations)),
			Locations: d.Locations,
		})
	}
	for _, d := range idx.DuplicateDOIs() {
		result.Issues = append(result.Issues, CheckIssue{
			Type:      IssueDuplicateDOI,
			Reason:    fmt.Sprintf("doi %s cited by %d entries", d.Value, len(d.Locations)),
			Locations: d.Locations,
		})
	}
	if len(result.Issues) > 0 {
		result.Status = "warning"
	}

	for _, s := range sections {
		result.Entries += len(s.Entries)
		for _, e := range s.Entries {
			if _, err := cite.NormalizeDate(e); err != nil {
				result.Issues = append(result.Issues, CheckIssue{
					Type:    IssueBadDate,
					Section: s.Name,
					Key:     e.Key,
					Line:    e.Line,
					Reason:  err.Error(),
				})
				result.Status = "error"
			}
		}
	}
	return result
}

func printCheckHuman(result CheckResult) {
	if len(result.Issues) == 0 {
		outputHuman("All checks passed: %d entries in %d sections\n", result.Entries, result.Sections)
		return
	}

	outputHuman("Found %d issues in %d entries:\n", len(result.Issues), result.Entries)
	for _, issue := range result.Issues {
		var where []string
		if issue.Section != "" {
			where = append(where, fmt.Sprintf("section %q", issue.Section))
		}
		if issue.Key != "" {
			where = append(where, issue.Key)
		}
		if issue.Source != "" {
			where = append(where, issue.Source)
		}
		if issue.Line > 0 {
			where = append(where, fmt.Sprintf("line %d", issue.Line))
		}
		outputHuman("  [%s] %s: %s\n", issue.Type, strings.Join(where, ", "), truncateString(issue.Reason, 120))
	}
}
