package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mintydevdaz/gigs/internal/pipeline"
)

// OutputFormat specifies the summary output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteSummary writes the run summary in the specified format.
func WriteSummary(w io.Writer, summary pipeline.Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeText(w, summary)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, summary pipeline.Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

func writeText(w io.Writer, summary pipeline.Summary) error {
	fmt.Fprintf(w, "Run %s finished in %s\n", summary.RunID, summary.Elapsed)

	for _, s := range summary.Sources {
		if s.Err != "" {
			fmt.Fprintf(w, "  %s: FAILED: %s\n", s.Source, s.Err)
			continue
		}
		fmt.Fprintf(w, "  %s: %d records from %d pages", s.Source, s.Records, s.PagesVisited)
		if s.PagesFailed > 0 {
			fmt.Fprintf(w, " (%d pages failed)", s.PagesFailed)
		}
		if s.RecordsSkipped > 0 {
			fmt.Fprintf(w, " (%d records skipped)", s.RecordsSkipped)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total events: %d\n", summary.TotalEvents)
	if len(summary.UnresolvedVenues) > 0 {
		fmt.Fprintf(w, "Unresolved venues (%d): %s\n",
			len(summary.UnresolvedVenues), strings.Join(summary.UnresolvedVenues, ", "))
	}
	return nil
}
