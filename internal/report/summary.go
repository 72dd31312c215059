package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/digipres/fixity/internal/outcome"
)

// Summary holds the static facts about a run that frame its rendered
// summary. Counts come from the sink's tallies at render time.
type Summary struct {
	Action       outcome.Action
	Host         string // defaults to os.Hostname
	PrimaryPath  string
	TreePath     string
	ManifestPath string
	Formats      []string
	Interrupted  bool
}

var printer = message.NewPrinter(language.English)

// Render produces the human-readable run summary: header, intro, outcome
// detail with separated counts and byte totals, and the elapsed time with
// the report location. A zero stop time renders the in-progress form.
func (s Summary) Render(tallies []Tally, reportDir string, start, stop time.Time) string {
	host := s.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "fixity: processing report for host %s\n\n", host)
	fmt.Fprintf(&b, "%s results for %s\n", s.Action.Title(), s.PrimaryPath)

	switch s.Action {
	case outcome.ActionValidateManifest:
		fmt.Fprintf(&b, "\nValidation performed using manifest file %s\n", s.ManifestPath)
	case outcome.ActionValidateTree:
		fmt.Fprintf(&b, "\nValidation performed using checksum tree %s\n", s.TreePath)
	case outcome.ActionCreate:
		if len(s.Formats) > 0 {
			fmt.Fprintf(&b, "\nLimited processing to file formats %v\n", s.Formats)
		}
	}

	b.WriteString("\n")
	b.WriteString(s.detail(tallies))
	b.WriteString("\n")

	for _, t := range tallies {
		if t.Count == 0 {
			continue
		}
		if t.Bytes > 0 {
			printer.Fprintf(&b, "\n%s: %d (%d bytes)", t.Outcome.Text(), t.Count, t.Bytes)
		} else {
			printer.Fprintf(&b, "\n%s: %d", t.Outcome.Text(), t.Count)
		}
	}
	b.WriteString("\n")

	if stop.IsZero() {
		fmt.Fprintf(&b, "\nProcessing still ongoing, started at: %s\n",
			start.Format("2006-01-02 15:04"))
	} else {
		fmt.Fprintf(&b, "\nTime taken: %s\n", stop.Sub(start).Round(time.Second))
		fmt.Fprintf(&b, "\nDetailed reports created in: %s\n", reportDir)
	}
	return b.String()
}

// detail is the one-line verdict for the action.
func (s Summary) detail(tallies []Tally) string {
	counts := make(map[string]int64, len(tallies))
	for _, t := range tallies {
		counts[t.Outcome.Name()] = t.Count
	}

	switch s.Action {
	case outcome.ActionCompareTrees, outcome.ActionCompareManifests:
		if counts["missing"] == 0 && counts["unmatched"] == 0 {
			return "All checksums matched."
		}
		return "Checksums do not match on all nodes."
	case outcome.ActionCreate:
		switch {
		case counts["failed"] > 0:
			return "Checksums could not be generated for some files."
		case counts["added"] > 0:
			return "New files detected."
		default:
			return "No new files detected."
		}
	case outcome.ActionValidateManifest, outcome.ActionValidateTree:
		reference := "manifest"
		if s.Action == outcome.ActionValidateTree {
			reference = "checksum tree"
		}
		if counts["missing"] == 0 && counts["invalid"] == 0 {
			return fmt.Sprintf("All files in %s correct.", reference)
		}
		return fmt.Sprintf("Some files could not be validated against %s.", reference)
	case outcome.ActionStageFiles:
		var lines []string
		if s.Interrupted {
			lines = append(lines, "File staging was interrupted due to consecutive error threshold breach.")
		}
		if counts["staged"] == 0 {
			lines = append(lines, "No new files staged.")
		} else {
			lines = append(lines, "New files added to storage.")
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// errorsDetected reports whether the tallies contain outcomes the action
// treats as errors.
func (s Summary) errorsDetected(tallies []Tally) bool {
	counts := make(map[string]int64, len(tallies))
	for _, t := range tallies {
		counts[t.Outcome.Name()] = t.Count
	}
	switch s.Action {
	case outcome.ActionCompareTrees, outcome.ActionCompareManifests:
		return counts["missing"] > 0 || counts["unmatched"] > 0 || counts["oserror"] > 0
	case outcome.ActionCreate:
		return counts["failed"] > 0
	case outcome.ActionValidateManifest, outcome.ActionValidateTree:
		return counts["missing"] > 0 || counts["invalid"] > 0 ||
			counts["additional"] > 0 || counts["oserror"] > 0
	case outcome.ActionStageFiles:
		return counts["failed"] > 0 || counts["aborted"] > 0 || counts["unknown"] > 0
	default:
		return false
	}
}
