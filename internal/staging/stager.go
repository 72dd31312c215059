package staging

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/digipres/fixity/internal/hashing"
	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/records"
)

// Stager drives one Task at a time through the staging state machine:
// open, quorum gate, write, verify, and rollback on failure.
type Stager struct {
	Algorithm      string
	BlockSize      int
	RemoveOriginal bool
	Log            *slog.Logger

	// digest is swapped in tests to force verification outcomes.
	digest func(path, algorithm string, blockSize int) (string, int64, error)
}

// NewStager returns a stager using the registered digest computer.
func NewStager(algorithm string, blockSize int, removeOriginal bool, log *slog.Logger) *Stager {
	if log == nil {
		log = slog.Default()
	}
	return &Stager{
		Algorithm:      algorithm,
		BlockSize:      blockSize,
		RemoveOriginal: removeOriginal,
		Log:            log,
		digest:         hashing.DigestFile,
	}
}

// Stage runs the full state machine for one task. The task's final state is
// exactly one of: fully staged; aborted before write with no side effects;
// rolled back; or partially rolled back with COULD_NOT_REMOVE destinations.
func (s *Stager) Stage(t *Task) {
	s.open(t)

	if !t.Ready() {
		// Quorum failed. Undo only what this task created; pre-existing
		// duplicates are untouched.
		s.rollback(t)
		return
	}

	s.write(t)
	if !t.Failed() {
		s.verify(t)
	}
	if t.Failed() {
		s.rollback(t)
		return
	}

	if t.Completed() && s.RemoveOriginal {
		if err := os.Remove(t.Source); err != nil {
			s.Log.Warn("could not remove staged source", "path", t.Source, "error", err)
		}
	}
}

// open attempts exclusive creation of every destination data file. Existing
// data or sidecar files mark the destination as a duplicate without opening
// anything.
func (s *Stager) open(t *Task) {
	for _, d := range t.Destinations {
		if _, err := os.Stat(d.DataPath); err == nil {
			d.State = outcome.StageDuplicateFile
			continue
		}
		if d.SidecarPath != "" {
			if _, err := os.Stat(d.SidecarPath); err == nil {
				d.State = outcome.StageDuplicateChecksum
				continue
			}
		}
		handle, err := createExclusive(d.DataPath)
		if err != nil {
			d.fail(outcome.StageDataWriteFailure, err)
			continue
		}
		d.handle = handle
		d.State = outcome.StageReady
	}
}

// write streams the source in fixed blocks to every destination handle
// while computing one running digest over the source bytes. The first
// destination write failure stops further blocks to every destination.
func (s *Stager) write(t *Task) {
	hasher, err := hashing.New(s.Algorithm)
	if err != nil {
		for _, d := range t.Destinations {
			d.fail(outcome.StageDataWriteFailure, err)
		}
		s.closeHandles(t)
		return
	}

	for _, d := range t.Destinations {
		d.State = outcome.StageInProgress
	}

	src, err := os.Open(t.Source)
	if err != nil {
		for _, d := range t.Destinations {
			d.fail(outcome.StageDataWriteFailure, fmt.Errorf("open source: %w", err))
		}
		s.closeHandles(t)
		return
	}
	defer src.Close()

	blockSize := s.BlockSize
	if blockSize <= 0 {
		blockSize = hashing.DefaultBlockSize
	}
	buf := make([]byte, blockSize)

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			block := buf[:n]
			hasher.Write(block)
			for _, d := range t.Destinations {
				if d.State != outcome.StageInProgress {
					continue
				}
				if _, err := d.handle.Write(block); err != nil {
					d.fail(outcome.StageDataWriteFailure, err)
				}
			}
			if t.Failed() {
				break
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			for _, d := range t.Destinations {
				if d.State == outcome.StageInProgress {
					d.fail(outcome.StageDataWriteFailure, fmt.Errorf("read source: %w", readErr))
				}
			}
			break
		}
	}

	if !t.Failed() {
		t.Digest = hexDigest(hasher)
	}
	s.closeHandles(t)
}

// verify re-reads every destination's written bytes and compares the digest
// to the source digest, then commits the sidecar and manifest entries.
func (s *Stager) verify(t *Task) {
	if t.Digest == "" {
		return
	}
	for _, d := range t.Destinations {
		written, _, err := s.digest(d.DataPath, s.Algorithm, s.BlockSize)
		if err != nil {
			d.fail(outcome.StageChecksumMismatch, fmt.Errorf("re-read for verification: %w", err))
			continue
		}
		if written != t.Digest {
			d.fail(outcome.StageChecksumMismatch, nil)
			continue
		}
		if d.SidecarPath != "" {
			if err := s.writeSidecar(d, t.Digest); err != nil {
				d.fail(outcome.StageChecksumWriteFailure, err)
				continue
			}
			d.wroteSidecar = true
		}
		if d.ManifestPath != "" {
			if err := s.appendManifest(d, t.Digest); err != nil {
				d.fail(outcome.StageChecksumWriteFailure, err)
				continue
			}
		}
		d.State = outcome.StageStaged
	}
}

// rollback deletes, best-effort, everything this task created: data files
// at destinations whose handle was opened and sidecars that were written.
// Destinations that were READY, IN_PROGRESS, or STAGED become UNSTAGED; a
// failed deletion becomes COULD_NOT_REMOVE. Directories emptied by the
// deletions are pruned bottom-up.
func (s *Stager) rollback(t *Task) {
	s.closeHandles(t)
	for _, d := range t.Destinations {
		created := d.createdData()
		removeFailed := false
		if created {
			if err := os.Remove(d.DataPath); err != nil && !os.IsNotExist(err) {
				d.fail(outcome.StageCouldNotRemove, err)
				removeFailed = true
			}
		}
		if d.wroteSidecar {
			if err := os.Remove(d.SidecarPath); err != nil && !os.IsNotExist(err) {
				d.fail(outcome.StageCouldNotRemove, err)
				removeFailed = true
			}
		}
		if removeFailed {
			continue
		}
		switch d.State {
		case outcome.StageReady, outcome.StageInProgress, outcome.StageStaged:
			d.State = outcome.StageUnstaged
		}
		if created {
			pruneEmptyDirs(filepath.Dir(d.DataPath), d.Root)
			if d.SidecarPath != "" {
				pruneEmptyDirs(filepath.Dir(d.SidecarPath), d.checksumStop())
			}
		}
	}
}

// checksumStop is the directory sidecar pruning must not remove. The
// checksum tree usually lives outside the data root, so pruning bounded by
// Root would stop before removing anything.
func (d *Destination) checksumStop() string {
	if d.ChecksumRoot != "" {
		return d.ChecksumRoot
	}
	return d.Root
}

// createdData reports whether the task created this destination's data
// file. Duplicate destinations were never opened, so their pre-existing
// files must survive rollback.
func (d *Destination) createdData() bool {
	switch d.State {
	case outcome.StageDuplicateFile, outcome.StageDuplicateChecksum:
		return false
	}
	return d.handle != nil || d.State == outcome.StageStaged ||
		d.State == outcome.StageInProgress || d.State == outcome.StageChecksumMismatch ||
		d.State == outcome.StageChecksumWriteFailure
}

func (s *Stager) closeHandles(t *Task) {
	for _, d := range t.Destinations {
		if d.handle != nil {
			d.handle.Close()
		}
	}
}

// writeSidecar writes the destination's one-line checksum file:
// "<digest> *<sep><basename>\n".
func (s *Stager) writeSidecar(d *Destination, digest string) error {
	if err := os.MkdirAll(filepath.Dir(d.SidecarPath), 0o755); err != nil {
		return err
	}
	line := fmt.Sprintf("%s %s\n", digest, records.PlaceholderKey(filepath.Base(d.DataPath)))
	f, err := os.OpenFile(d.SidecarPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// appendManifest appends "<digest> *<sep><relpath>\n" to the destination's
// manifest, with the path relative to the destination root.
func (s *Stager) appendManifest(d *Destination, digest string) error {
	relPath, err := filepath.Rel(d.Root, d.DataPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(d.ManifestPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(d.ManifestPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s %s\n", digest, records.PlaceholderKey(relPath))
	return err
}

func hexDigest(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// createExclusive creates the file and any missing parent directories,
// failing if the file already exists.
func createExclusive(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
}

// pruneEmptyDirs removes now-empty directories from dir up to (but not
// including) stop. Non-empty or inaccessible directories end the walk;
// errors never propagate.
func pruneEmptyDirs(dir, stop string) {
	stop = filepath.Clean(stop)
	for {
		dir = filepath.Clean(dir)
		if dir == stop || !strings.HasPrefix(dir, stop+string(filepath.Separator)) {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
