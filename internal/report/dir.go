package report

import (
	"path/filepath"
	"time"

	"github.com/digipres/fixity/internal/outcome"
)

// RunDir builds the dated report directory for one run:
// <outputRoot>/<category>/<timestamp>.
func RunDir(outputRoot string, action outcome.Action, now time.Time) string {
	return filepath.Join(outputRoot, action.Category(), now.Format("2006-01-02T1504"))
}
