package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/digipres/fixity/internal/hashing"
	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pool"
	"github.com/digipres/fixity/internal/records"
	"github.com/digipres/fixity/internal/report"
)

// Create walks the primary tree and writes one checksum sidecar per data
// file into the checksum tree, optionally appending a manifest line. Files
// whose sidecar already exists are skipped, which makes repeated runs over
// an unchanged tree produce only SKIPPED outcomes.
type Create struct {
	Env
}

type creationResult struct {
	path   string
	status outcome.Creation
	size   int64
}

// Run drives the pipeline to completion.
func (p *Create) Run() error {
	cfg := p.Config
	if err := requireDir(cfg.PrimaryPath, "primary path"); err != nil {
		return err
	}
	if cfg.TreePath == "" {
		return fmt.Errorf("checksum tree directory not configured")
	}

	source := records.TreeSource{
		Root:       cfg.PrimaryPath,
		Recursive:  cfg.Recursive,
		Extensions: cfg.Extensions,
	}
	total := pool.UnknownTotal
	if cfg.CountFiles {
		total = source.Count()
	}

	d := pool.Dispatcher[string, creationResult]{
		Workers:  cfg.Processes,
		Work:     p.processFile,
		Progress: p.Progress,
	}

	var sinkErr error
	d.Run(source.Files(), total, func(r creationResult) bool {
		if sinkErr != nil {
			return true
		}
		rec := report.Record{Outcome: r.status, Path: r.path, Size: r.size}
		if err := p.Sink.Add(rec); err != nil {
			sinkErr = err
		}
		return true
	})
	return sinkErr
}

// processFile creates the sidecar for one data file, or classifies why it
// could not.
func (p *Create) processFile(path string) creationResult {
	cfg := p.Config
	relPath, err := filepath.Rel(cfg.PrimaryPath, path)
	if err != nil {
		return creationResult{path: path, status: outcome.CreationFailed, size: report.SizeUnknown}
	}
	sidecar := filepath.Join(cfg.TreePath, relPath) + "." + cfg.Algorithm
	if _, err := os.Stat(sidecar); err == nil {
		return creationResult{path: path, status: outcome.CreationSkipped, size: report.SizeUnknown}
	}

	digest, size, err := hashing.DigestFile(path, cfg.Algorithm, cfg.BlockSize)
	if err != nil {
		p.logger().Warn("hash generation failed", "path", path, "error", err)
		return creationResult{path: path, status: outcome.CreationFailed, size: report.SizeUnknown}
	}
	if err := writeSidecar(sidecar, digest, filepath.Base(path)); err != nil {
		p.logger().Warn("sidecar write failed", "path", sidecar, "error", err)
		return creationResult{path: path, status: outcome.CreationFailed, size: report.SizeUnknown}
	}
	if cfg.ManifestPath != "" {
		if err := appendManifestLine(cfg.ManifestPath, digest, relPath); err != nil {
			p.logger().Warn("manifest append failed", "path", cfg.ManifestPath, "error", err)
			return creationResult{path: path, status: outcome.CreationFailed, size: report.SizeUnknown}
		}
	}

	display := path
	if !cfg.AbsolutePath {
		display = records.PlaceholderKey(relPath)
	}
	return creationResult{path: display, status: outcome.CreationAdded, size: size}
}

// writeSidecar writes a one-line checksum file: "<digest> *<sep><name>\n".
func writeSidecar(path, digest, name string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	line := fmt.Sprintf("%s %s\n", digest, records.PlaceholderKey(name))
	return os.WriteFile(path, []byte(line), 0o644)
}

// appendManifestLine appends "<digest> *<sep><relpath>\n" to the manifest.
// The file is opened per call with O_APPEND so concurrent workers interleave
// whole lines.
func appendManifestLine(path, digest, relPath string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s %s\n", digest, records.PlaceholderKey(relPath))
	return err
}
