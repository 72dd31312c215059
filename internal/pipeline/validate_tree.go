package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/digipres/fixity/internal/hashing"
	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pool"
	"github.com/digipres/fixity/internal/records"
	"github.com/digipres/fixity/internal/report"
)

// ValidateTree checks every data file against its sidecar in a checksum
// tree, then scans the data tree for files that have no sidecar under any
// registered algorithm extension.
type ValidateTree struct {
	Env
}

// Run drives the pipeline to completion.
func (p *ValidateTree) Run() error {
	cfg := p.Config
	if err := requireDir(cfg.PrimaryPath, "primary path"); err != nil {
		return err
	}
	if err := requireDir(cfg.TreePath, "checksum tree directory"); err != nil {
		return err
	}

	source := records.TreeSource{Root: cfg.TreePath, Recursive: cfg.Recursive}
	total := pool.UnknownTotal
	if cfg.CountFiles {
		total = source.Count()
	}

	d := pool.Dispatcher[string, validationResult]{
		Workers:  cfg.Processes,
		Work:     p.validateSidecar,
		Progress: p.Progress,
	}

	var sinkErr error
	d.Run(source.Files(), total, func(r validationResult) bool {
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

// validateSidecar recomputes the digest of the data file a sidecar points at
// and compares it to the recorded value. The algorithm is taken from the
// sidecar's extension; the data file's relative path is the sidecar's with
// that extension stripped.
func (p *ValidateTree) validateSidecar(sidecarPath string) validationResult {
	cfg := p.Config

	digest, err := readSidecarDigest(sidecarPath)
	if err != nil {
		display := records.DisplayPath(sidecarPath, cfg.PrimaryPath, cfg.AbsolutePath)
		return validationResult{path: display, status: outcome.ValidationOSError, size: report.SizeUnknown}
	}

	ext := strings.TrimPrefix(filepath.Ext(sidecarPath), ".")
	sidecarRel, err := filepath.Rel(cfg.TreePath, sidecarPath)
	if err != nil {
		return validationResult{path: sidecarPath, status: outcome.ValidationOSError, size: report.SizeUnknown}
	}
	dataRel := strings.TrimSuffix(sidecarRel, filepath.Ext(sidecarRel))
	full := filepath.Join(cfg.PrimaryPath, dataRel)
	display := records.DisplayPath(records.PlaceholderKey(dataRel), cfg.PrimaryPath, cfg.AbsolutePath)

	if _, err := os.Stat(full); err != nil {
		return validationResult{path: display, status: outcome.ValidationMissing, size: report.SizeUnknown}
	}
	current, size, err := hashing.DigestFile(full, ext, cfg.BlockSize)
	if err != nil {
		return validationResult{path: display, status: outcome.ValidationOSError, size: report.SizeUnknown}
	}
	if current != digest {
		return validationResult{path: display, status: outcome.ValidationInvalid, size: size}
	}
	return validationResult{path: display, status: outcome.ValidationValid, size: size}
}

// findAdditionalFiles flags data files with no sidecar under any registered
// algorithm extension. Each such file is reported exactly once.
func (p *ValidateTree) findAdditionalFiles() error {
	cfg := p.Config
	algorithms := hashing.Names()

	source := records.TreeSource{Root: cfg.PrimaryPath, Recursive: cfg.Recursive}
	d := pool.Dispatcher[string, validationResult]{
		Workers: cfg.Processes,
		Work: func(path string) validationResult {
			relPath, err := filepath.Rel(cfg.PrimaryPath, path)
			if err != nil {
				return validationResult{}
			}
			for _, alg := range algorithms {
				sidecar := filepath.Join(cfg.TreePath, relPath) + "." + alg
				if _, err := os.Stat(sidecar); err == nil {
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

// readSidecarDigest returns the digest token from a one-line sidecar file.
func readSidecarDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line := strings.TrimRight(string(data), "\r\n")
	digest, _, _ := strings.Cut(line, " ")
	return digest, nil
}
