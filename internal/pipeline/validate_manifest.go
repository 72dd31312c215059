package pipeline

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/digipres/fixity/internal/hashing"
	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pool"
	"github.com/digipres/fixity/internal/records"
	"github.com/digipres/fixity/internal/report"
)

// ValidateManifest recomputes the digest of every file listed in a manifest
// and compares it to the recorded value, then scans the primary tree for
// files the manifest does not mention.
type ValidateManifest struct {
	Env
}

type validationResult struct {
	path   string
	status outcome.Validation
	size   int64
}

// Run drives the pipeline to completion.
func (p *ValidateManifest) Run() error {
	cfg := p.Config
	if err := requireDir(cfg.PrimaryPath, "primary path"); err != nil {
		return err
	}
	if err := requireFile(cfg.ManifestPath, "manifest file"); err != nil {
		return err
	}

	source := records.ManifestSource{Path: cfg.ManifestPath}
	total := pool.UnknownTotal
	if cfg.CountFiles {
		if n, err := records.CountLines(cfg.ManifestPath); err == nil {
			total = n
		}
	}

	d := pool.Dispatcher[records.ManifestEntry, validationResult]{
		Workers:  cfg.Processes,
		Work:     p.validateEntry,
		Progress: p.Progress,
	}

	var sinkErr error
	d.Run(source.Entries(), total, func(r validationResult) bool {
		if sinkErr != nil {
			return true
		}
		rec := report.Record{Outcome: r.status, Path: r.path, Size: r.size}
		if err := p.Sink.Add(rec); err != nil {
			sinkErr = err
		}
		return true
	})
	if sinkErr != nil {
		return sinkErr
	}

	return p.findAdditionalFiles()
}

// validateEntry checks one manifest record against the file on disk.
func (p *ValidateManifest) validateEntry(entry records.ManifestEntry) validationResult {
	cfg := p.Config
	full := records.ExpandPlaceholder(entry.Path, cfg.PrimaryPath)
	display := records.DisplayPath(entry.Path, cfg.PrimaryPath, cfg.AbsolutePath)

	if _, err := os.Stat(full); err != nil {
		return validationResult{path: display, status: outcome.ValidationMissing, size: report.SizeUnknown}
	}
	digest, size, err := hashing.DigestFile(full, cfg.Algorithm, cfg.BlockSize)
	if err != nil {
		return validationResult{path: display, status: outcome.ValidationOSError, size: report.SizeUnknown}
	}
	if digest != entry.Digest {
		return validationResult{path: display, status: outcome.ValidationInvalid, size: size}
	}
	return validationResult{path: display, status: outcome.ValidationValid, size: size}
}

// findAdditionalFiles flags primary-tree files whose placeholder path token
// appears nowhere in the manifest text. A first-match substring search over
// the manifest bytes is sufficient; the bytes are loaded once and shared
// read-only across workers.
func (p *ValidateManifest) findAdditionalFiles() error {
	cfg := p.Config
	manifest, err := os.ReadFile(cfg.ManifestPath)
	if err != nil {
		return err
	}

	source := records.TreeSource{Root: cfg.PrimaryPath, Recursive: true}
	d := pool.Dispatcher[string, validationResult]{
		Workers: cfg.Processes,
		Work: func(path string) validationResult {
			relPath, err := filepath.Rel(cfg.PrimaryPath, path)
			if err != nil {
				return validationResult{}
			}
			for _, key := range records.PlaceholderVariants(relPath) {
				if bytes.Contains(manifest, []byte(key)) {
					return validationResult{}
				}
			}
			return validationResult{
				path:   records.PlaceholderKey(relPath),
				status: outcome.ValidationAdditional,
				size:   report.SizeUnknown,
			}
		},
		Progress: p.Progress,
	}

	var sinkErr error
	d.Run(source.Files(), pool.UnknownTotal, func(r validationResult) bool {
		if sinkErr != nil || r.status == 0 {
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
