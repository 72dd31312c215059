// Package records enumerates the inputs of fixity operations: files found in
// a directory tree and entries parsed from a checksum manifest. All sources
// are lazy and restartable; iterating twice performs two independent
// traversals, which lets pipelines take an eager pre-count pass before the
// real one without materializing the file list.
package records

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// TreeSource lazily yields the files under Root. Permission errors on
// individual entries are skipped, never fatal. Ordering follows directory
// read order and must not be relied on.
type TreeSource struct {
	Root       string
	Recursive  bool
	Extensions []string // optional allow-list of file name suffixes
}

// Files returns a restartable sequence of absolute file paths.
func (s TreeSource) Files() iter.Seq[string] {
	return func(yield func(string) bool) {
		s.walk(s.Root, yield)
	}
}

func (s TreeSource) walk(dir string, yield func(string) bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directories are skipped, matching the per-entry
		// permission handling for files.
		return true
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if s.Recursive {
				if !s.walk(path, yield) {
					return false
				}
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if !matchesExtensions(path, s.Extensions) {
			continue
		}
		if !yield(path) {
			return false
		}
	}
	return true
}

// Count eagerly counts the files the source would yield. Used for progress
// totals; the traversal is disposable.
func (s TreeSource) Count() int {
	n := 0
	for range s.Files() {
		n++
	}
	return n
}

func matchesExtensions(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// ManifestEntry is one parsed manifest record: a digest and the path token
// that follows it. Paths keep their root placeholder prefix.
type ManifestEntry struct {
	Digest string
	Path   string
}

// ManifestSource lazily yields the valid entries of a manifest file. Lines
// without a separator are skipped. The file is re-opened on every iteration,
// so the sequence is restartable.
type ManifestSource struct {
	Path string
}

// Entries returns a restartable sequence of manifest entries. A file open
// failure yields nothing; callers that need the distinction should stat the
// manifest up front.
func (m ManifestSource) Entries() iter.Seq[ManifestEntry] {
	return func(yield func(ManifestEntry) bool) {
		f, err := os.Open(m.Path)
		if err != nil {
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r\n")
			digest, path, found := strings.Cut(line, " ")
			if !found || digest == "" || path == "" {
				continue
			}
			if !yield(ManifestEntry{Digest: digest, Path: path}) {
				return
			}
		}
	}
}

// CountLines counts the lines in a text file, tolerating invalid byte
// sequences. Used for progress totals when validating or comparing
// manifests.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("count lines in %s: %w", path, err)
	}
	return n, nil
}
