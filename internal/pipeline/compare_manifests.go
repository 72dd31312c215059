package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pool"
	"github.com/digipres/fixity/internal/records"
	"github.com/digipres/fixity/internal/report"
)

// CompareManifests locates every master-manifest entry in each other
// manifest and compares the recorded digests. The match rule is the first
// line containing the literal path token; the digest compared is that
// line's leading token.
type CompareManifests struct {
	Env
}

// manifestIndex holds one comparison manifest parsed into lines. The raw
// line text is kept for the literal substring match; the digest token is
// pre-split so a hit never needs reparsing.
type manifestIndex struct {
	path  string
	lines []manifestLine
}

type manifestLine struct {
	raw    string
	digest string
}

func loadManifestIndex(path string) (*manifestIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()

	idx := &manifestIndex{path: path}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r\n")
		digest, _, _ := strings.Cut(raw, " ")
		idx.lines = append(idx.lines, manifestLine{raw: raw, digest: digest})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return idx, nil
}

// lookup returns the digest token of the first line containing the literal
// path token.
func (m *manifestIndex) lookup(pathToken string) (string, bool) {
	for _, line := range m.lines {
		if strings.Contains(line.raw, pathToken) {
			return line.digest, true
		}
	}
	return "", false
}

// Run drives the pipeline to completion.
func (p *CompareManifests) Run() error {
	cfg := p.Config
	if err := requireFile(cfg.PrimaryPath, "master manifest"); err != nil {
		return err
	}
	indexes := make([]*manifestIndex, 0, len(cfg.OtherPaths))
	for _, other := range cfg.OtherPaths {
		idx, err := loadManifestIndex(other)
		if err != nil {
			return err
		}
		indexes = append(indexes, idx)
	}

	source := records.ManifestSource{Path: cfg.PrimaryPath}
	total := pool.UnknownTotal
	if cfg.CountFiles {
		if n, err := records.CountLines(cfg.PrimaryPath); err == nil {
			total = n
		}
	}

	d := pool.Dispatcher[records.ManifestEntry, comparisonResult]{
		Workers: cfg.Processes,
		Work: func(entry records.ManifestEntry) comparisonResult {
			return compareEntry(entry, indexes, cfg.PrimaryPath, cfg.AbsolutePath)
		},
		Progress: p.Progress,
	}

	var sinkErr error
	d.Run(source.Entries(), total, func(r comparisonResult) bool {
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

// compareEntry checks one master entry against every comparison manifest.
// The indexes are shared read-only across workers.
func compareEntry(entry records.ManifestEntry, indexes []*manifestIndex, masterPath string, absolute bool) comparisonResult {
	statuses := make([]report.TargetStatus, 0, len(indexes))
	for _, idx := range indexes {
		status := outcome.ComparisonMatched
		digest, found := idx.lookup(entry.Path)
		switch {
		case !found:
			status = outcome.ComparisonMissing
		case digest != entry.Digest:
			status = outcome.ComparisonUnmatched
		}
		statuses = append(statuses, report.TargetStatus{Target: idx.path, Status: status})
	}
	display := records.DisplayPath(entry.Path, masterPath, absolute)
	return comparisonResult{path: display, statuses: statuses}
}
