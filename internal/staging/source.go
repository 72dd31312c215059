package staging

import (
	"fmt"
	"iter"
	"path/filepath"

	"github.com/digipres/fixity/internal/config"
	"github.com/digipres/fixity/internal/records"
)

// Layout is the resolved set of staging destinations: parallel lists of
// data roots, checksum-tree roots, and optional manifest files.
type Layout struct {
	DataRoots     []string
	ChecksumRoots []string
	Manifests     []string
}

// ResolveLayout validates the configured destination lists. When no
// checksum trees are given, each destination root gets a "files" data
// directory and a sibling "checksums" tree. Tree and manifest lists must
// match the destination count or be omitted entirely.
func ResolveLayout(cfg config.Run) (Layout, error) {
	if len(cfg.DestinationRoots) == 0 {
		return Layout{}, fmt.Errorf("no staging destinations configured")
	}
	if n := len(cfg.StagingTrees); n > 0 && n != len(cfg.DestinationRoots) {
		return Layout{}, fmt.Errorf("number of target directories (%d) does not match number of tree directories (%d)",
			len(cfg.DestinationRoots), n)
	}
	if n := len(cfg.StagingManifests); n > 0 && n != len(cfg.DestinationRoots) {
		return Layout{}, fmt.Errorf("number of target directories (%d) does not match number of manifest files (%d)",
			len(cfg.DestinationRoots), n)
	}

	var layout Layout
	if len(cfg.StagingTrees) == 0 {
		for _, root := range cfg.DestinationRoots {
			layout.DataRoots = append(layout.DataRoots, filepath.Join(root, "files"))
			layout.ChecksumRoots = append(layout.ChecksumRoots, filepath.Join(root, "checksums"))
		}
	} else {
		layout.DataRoots = append(layout.DataRoots, cfg.DestinationRoots...)
		layout.ChecksumRoots = append(layout.ChecksumRoots, cfg.StagingTrees...)
	}
	layout.Manifests = append(layout.Manifests, cfg.StagingManifests...)
	return layout, nil
}

// Tasks lazily builds one staging task per file under the source directory.
// Each task carries a fresh destination list so workers never share mutable
// state.
func Tasks(cfg config.Run, layout Layout) iter.Seq[*Task] {
	source := records.TreeSource{
		Root:       cfg.PrimaryPath,
		Recursive:  true,
		Extensions: cfg.Extensions,
	}
	return func(yield func(*Task) bool) {
		for path := range source.Files() {
			relPath, err := filepath.Rel(cfg.PrimaryPath, path)
			if err != nil {
				continue
			}
			task := &Task{Source: path}
			for i, dataRoot := range layout.DataRoots {
				dest := &Destination{
					Root:     dataRoot,
					DataPath: filepath.Join(dataRoot, relPath),
				}
				if i < len(layout.ChecksumRoots) {
					dest.ChecksumRoot = layout.ChecksumRoots[i]
					dest.SidecarPath = filepath.Join(layout.ChecksumRoots[i], relPath) + "." + cfg.Algorithm
				}
				if i < len(layout.Manifests) {
					dest.ManifestPath = layout.Manifests[i]
				}
				task.Destinations = append(task.Destinations, dest)
			}
			if !yield(task) {
				return
			}
		}
	}
}
