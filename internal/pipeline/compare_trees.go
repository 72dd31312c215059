package pipeline

import (
	"os"
	"path/filepath"

	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pool"
	"github.com/digipres/fixity/internal/records"
	"github.com/digipres/fixity/internal/report"
)

// AllTargets is the synthetic target an unreadable master sidecar is
// recorded against: no per-tree comparison could take place.
const AllTargets = "ALL"

// CompareTrees reads every sidecar in the master checksum tree and compares
// its digest string to the sidecar at the same relative path in each other
// tree.
type CompareTrees struct {
	Env
}

type comparisonResult struct {
	path     string
	statuses []report.TargetStatus
}

// Run drives the pipeline to completion.
func (p *CompareTrees) Run() error {
	cfg := p.Config
	if err := requireDir(cfg.PrimaryPath, "master checksum tree"); err != nil {
		return err
	}
	for _, other := range cfg.OtherPaths {
		if err := requireDir(other, "checksum tree"); err != nil {
			return err
		}
	}

	source := records.TreeSource{Root: cfg.PrimaryPath, Recursive: true}
	total := pool.UnknownTotal
	if cfg.CountFiles {
		total = source.Count()
	}

	d := pool.Dispatcher[string, comparisonResult]{
		Workers:  cfg.Processes,
		Work:     p.compareSidecar,
		Progress: p.Progress,
	}

	var sinkErr error
	d.Run(source.Files(), total, func(r comparisonResult) bool {
		if sinkErr != nil {
			return true
		}
		if err := p.Sink.AddComparison(r.path, r.statuses); err != nil {
			sinkErr = err
		}
		return true
	})
	return sinkErr
}

// compareSidecar compares one master sidecar's digest against every other
// tree. An unreadable master sidecar is recorded once against the synthetic
// ALL target, since no individual comparison was possible.
func (p *CompareTrees) compareSidecar(sidecarPath string) comparisonResult {
	cfg := p.Config
	relPath, err := filepath.Rel(cfg.PrimaryPath, sidecarPath)
	if err != nil {
		relPath = sidecarPath
	}
	display := records.DisplayPath(records.PlaceholderKey(relPath), cfg.PrimaryPath, cfg.AbsolutePath)

	masterDigest, err := readSidecarDigest(sidecarPath)
	if err != nil {
		return comparisonResult{
			path:     display,
			statuses: []report.TargetStatus{{Target: AllTargets, Status: outcome.ComparisonOSError}},
		}
	}

	statuses := make([]report.TargetStatus, 0, len(cfg.OtherPaths))
	for _, tree := range cfg.OtherPaths {
		otherPath := filepath.Join(tree, relPath)
		status := outcome.ComparisonMatched
		if _, err := os.Stat(otherPath); err != nil {
			status = outcome.ComparisonMissing
		} else if otherDigest, err := readSidecarDigest(otherPath); err != nil {
			status = outcome.ComparisonOSError
		} else if otherDigest != masterDigest {
			status = outcome.ComparisonUnmatched
		}
		statuses = append(statuses, report.TargetStatus{Target: tree, Status: status})
	}
	return comparisonResult{path: display, statuses: statuses}
}
