// Package config holds the immutable run configuration shared by all fixity
// components. A Run value is assembled once in the CLI layer and passed to
// each component at construction; nothing here is mutated after that.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Built-in defaults. Flag and file values overlay these.
const (
	DefaultAlgorithm        = "sha256"
	DefaultBlockSize        = 2 * 1024 * 1024
	DefaultCacheSize        = 1000
	DefaultProcesses        = 2
	DefaultFailureThreshold = 10
	DefaultMailSizeLimit    = 10_000_000
)

// Run is the full configuration for one fixity invocation.
type Run struct {
	// Common settings.
	PrimaryPath  string
	TreePath     string
	ManifestPath string
	OtherPaths   []string
	Algorithm    string
	BlockSize    int
	Processes    int
	Recursive    bool
	Extensions   []string
	OutputDir    string
	CacheSize    int
	CountFiles   bool
	AbsolutePath bool
	Email        []string

	// Staging settings.
	DestinationRoots []string
	StagingTrees     []string
	StagingManifests []string
	FailureThreshold int
	RemoveOriginal   bool
	KeepEmptyFolders bool
}

// Defaults returns a Run populated with the built-in defaults. The output
// directory defaults to a "fixity" folder in the user's home directory.
func Defaults() Run {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Run{
		Algorithm:        DefaultAlgorithm,
		BlockSize:        DefaultBlockSize,
		Processes:        DefaultProcesses,
		CacheSize:        DefaultCacheSize,
		FailureThreshold: DefaultFailureThreshold,
		OutputDir:        filepath.Join(home, "fixity"),
		CountFiles:       true,
		RemoveOriginal:   true,
	}
}

// File is the optional YAML defaults file. Only fields that commonly vary
// per installation are exposed; zero values leave the built-in default in
// place.
type File struct {
	Algorithm        string   `yaml:"algorithm"`
	BlockSize        int      `yaml:"block_size"`
	Processes        int      `yaml:"processes"`
	CacheSize        int      `yaml:"cache_size"`
	FailureThreshold int      `yaml:"failure_threshold"`
	OutputDir        string   `yaml:"output_dir"`
	Email            []string `yaml:"email"`
	RemoveOriginal   *bool    `yaml:"remove_original"`
}

// LoadFile reads a YAML defaults file and overlays it onto base.
func LoadFile(path string, base Run) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return base, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := base
	if f.Algorithm != "" {
		out.Algorithm = f.Algorithm
	}
	if f.BlockSize > 0 {
		out.BlockSize = f.BlockSize
	}
	if f.Processes > 0 {
		out.Processes = f.Processes
	}
	if f.CacheSize > 0 {
		out.CacheSize = f.CacheSize
	}
	if f.FailureThreshold > 0 {
		out.FailureThreshold = f.FailureThreshold
	}
	if f.OutputDir != "" {
		out.OutputDir = f.OutputDir
	}
	if len(f.Email) > 0 {
		out.Email = f.Email
	}
	if f.RemoveOriginal != nil {
		out.RemoveOriginal = *f.RemoveOriginal
	}
	return out, nil
}
