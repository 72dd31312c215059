// Package report buffers operation outcomes and writes them to partitioned
// CSV files plus a running textual summary. There is exactly one writer (the
// coordinating goroutine), so the sink needs no locking.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/digipres/fixity/internal/outcome"
)

// SizeUnknown marks records that carry no byte count.
const SizeUnknown = -1

// Detail is an extra ordered column on a record, typically a per-destination
// status.
type Detail struct {
	Key   string
	Value string
}

// Record is one buffered outcome.
type Record struct {
	Outcome outcome.Outcome
	Path    string
	Size    int64 // SizeUnknown when not applicable
	Details []Detail
}

// TargetStatus is the comparison status of one record on one target node.
type TargetStatus struct {
	Target string
	Status outcome.Comparison
}

// Tally is the running count and byte total for one outcome kind.
type Tally struct {
	Outcome outcome.Outcome
	Count   int64
	Bytes   int64
}

type partition struct {
	file    *os.File
	writer  *csv.Writer
	columns []string
}

// Sink buffers records in a bounded cache and flushes them to one CSV
// partition per outcome kind. Partitions and their headers are created
// lazily on first write and appended to on later flushes.
type Sink struct {
	dir       string
	cacheSize int
	summary   Summary

	cache      []Record
	partitions map[string]*partition
	tallies    map[string]*Tally
	kindOrder  []string
	start      time.Time
	stop       time.Time
}

// NewSink creates the report directory and an empty sink. cacheSize bounds
// the in-memory record cache; values below one fall back to the default.
func NewSink(dir string, cacheSize int, summary Summary) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	if cacheSize < 1 {
		cacheSize = 1000
	}
	return &Sink{
		dir:        dir,
		cacheSize:  cacheSize,
		summary:    summary,
		cache:      make([]Record, 0, cacheSize),
		partitions: make(map[string]*partition),
		tallies:    make(map[string]*Tally),
		start:      time.Now(),
	}, nil
}

// Dir returns the report directory.
func (s *Sink) Dir() string { return s.dir }

// Add buffers one record, flushing the cache to disk when it reaches
// capacity.
func (s *Sink) Add(rec Record) error {
	s.cache = append(s.cache, rec)
	if len(s.cache) >= s.cacheSize {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// AddComparison records a cross-node comparison. A record that matches on
// every target is written exactly once as MATCHED; otherwise one record is
// written per non-matching target, under that target's outcome kind. All
// rows carry the full per-target status columns.
func (s *Sink) AddComparison(path string, statuses []TargetStatus) error {
	details := make([]Detail, len(statuses))
	failed := false
	for i, ts := range statuses {
		details[i] = Detail{Key: ts.Target, Value: ts.Status.Name()}
		if ts.Status != outcome.ComparisonMatched {
			failed = true
		}
	}
	if !failed {
		return s.Add(Record{
			Outcome: outcome.ComparisonMatched,
			Path:    path,
			Size:    SizeUnknown,
			Details: details,
		})
	}
	for _, ts := range statuses {
		if ts.Status == outcome.ComparisonMatched {
			continue
		}
		err := s.Add(Record{
			Outcome: ts.Status,
			Path:    path,
			Size:    SizeUnknown,
			Details: details,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush writes every cached record to its partition, updates the running
// tallies, clears the cache, and rewrites the summary file.
func (s *Sink) Flush() error {
	for _, rec := range s.cache {
		if err := s.write(rec); err != nil {
			return err
		}
	}
	s.cache = s.cache[:0]
	for name, part := range s.partitions {
		part.writer.Flush()
		if err := part.writer.Error(); err != nil {
			return fmt.Errorf("flush %s partition: %w", name, err)
		}
	}
	return s.WriteSummary()
}

func (s *Sink) write(rec Record) error {
	name := rec.Outcome.Name()
	part, ok := s.partitions[name]
	if !ok {
		var err error
		part, err = s.newPartition(name, rec)
		if err != nil {
			return err
		}
		s.partitions[name] = part
	}

	row := make([]string, len(part.columns))
	for i, col := range part.columns {
		switch col {
		case "path":
			row[i] = rec.Path
		case "size":
			if rec.Size != SizeUnknown {
				row[i] = strconv.FormatInt(rec.Size, 10)
			}
		default:
			for _, d := range rec.Details {
				if d.Key == col {
					row[i] = d.Value
					break
				}
			}
		}
	}
	if err := part.writer.Write(row); err != nil {
		return fmt.Errorf("write %s partition: %w", name, err)
	}

	tally, ok := s.tallies[name]
	if !ok {
		tally = &Tally{Outcome: rec.Outcome}
		s.tallies[name] = tally
		s.kindOrder = append(s.kindOrder, name)
	}
	tally.Count++
	if rec.Size != SizeUnknown {
		tally.Bytes += rec.Size
	}
	return nil
}

// newPartition opens the CSV file for an outcome kind and writes its header.
// Columns are derived from the first record of the kind; every record of one
// kind carries the same shape.
func (s *Sink) newPartition(name string, first Record) (*partition, error) {
	columns := []string{"path"}
	if first.Size != SizeUnknown {
		columns = append(columns, "size")
	}
	for _, d := range first.Details {
		columns = append(columns, d.Key)
	}

	path := filepath.Join(s.dir, name+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s partition: %w", name, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s header: %w", name, err)
	}
	return &partition{file: f, writer: w, columns: columns}, nil
}

// Tallies returns the running counts in first-seen order.
func (s *Sink) Tallies() []Tally {
	out := make([]Tally, 0, len(s.kindOrder))
	for _, name := range s.kindOrder {
		out = append(out, *s.tallies[name])
	}
	return out
}

// Count returns the running count for one outcome kind.
func (s *Sink) Count(o outcome.Outcome) int64 {
	if t, ok := s.tallies[o.Name()]; ok {
		return t.Count
	}
	return 0
}

// WriteSummary rewrites the running summary file from the current tallies.
func (s *Sink) WriteSummary() error {
	text := s.summary.Render(s.Tallies(), s.dir, s.start, s.stop)
	path := filepath.Join(s.dir, "summary.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// SummaryText renders the current summary without writing it.
func (s *Sink) SummaryText() string {
	return s.summary.Render(s.Tallies(), s.dir, s.start, s.stop)
}

// ErrorsDetected reports whether the run's tallies contain error outcomes
// for its action.
func (s *Sink) ErrorsDetected() bool {
	return s.summary.errorsDetected(s.Tallies())
}

// MarkInterrupted flags the run as stopped by the circuit breaker.
func (s *Sink) MarkInterrupted() { s.summary.Interrupted = true }

// ExceptionPartitions returns the paths of partitions whose outcome kinds
// are flagged as exceptions, for attachment to notifications.
func (s *Sink) ExceptionPartitions() []string {
	var paths []string
	for _, name := range s.kindOrder {
		if s.tallies[name].Outcome.Exception() {
			paths = append(paths, filepath.Join(s.dir, name+".csv"))
		}
	}
	return paths
}

// AllPartitions returns the paths of every partition written so far.
func (s *Sink) AllPartitions() []string {
	var paths []string
	for _, name := range s.kindOrder {
		paths = append(paths, filepath.Join(s.dir, name+".csv"))
	}
	return paths
}

// Close flushes the remainder of the cache, finalises the summary with the
// stop time, and closes every partition file.
func (s *Sink) Close() error {
	s.stop = time.Now()
	if err := s.Flush(); err != nil {
		return err
	}
	var firstErr error
	for name, part := range s.partitions {
		part.writer.Flush()
		if err := part.writer.Error(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("flush %s partition: %w", name, err)
		}
		if err := part.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s partition: %w", name, err)
		}
	}
	return firstErr
}
