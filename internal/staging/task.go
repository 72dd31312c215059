// Package staging copies files into one or more destinations with verified
// checksum sidecars, under an all-or-nothing commit protocol. Each
// destination advances through a small state machine; a task either stages
// everywhere, aborts before writing, or is rolled back everywhere.
package staging

import (
	"os"

	"github.com/digipres/fixity/internal/outcome"
)

// Destination is one target of a staging task and the state machine that
// tracks it.
type Destination struct {
	Root         string // destination data root, used for manifest-relative paths
	ChecksumRoot string // checksum tree root, bounds sidecar directory pruning
	DataPath     string // where the file is written
	SidecarPath  string // optional checksum sidecar
	ManifestPath string // optional manifest to append to

	State  outcome.StagingState
	Detail string // failure detail, when any

	handle       *os.File
	wroteSidecar bool
}

func (d *Destination) fail(state outcome.StagingState, err error) {
	d.State = state
	if err != nil {
		d.Detail = err.Error()
	}
}

// Task is one source file and its ordered destinations. All destinations
// progress in lockstep; the task-level outcome is derived from their final
// states.
type Task struct {
	Source       string
	Destinations []*Destination

	// Digest of the source bytes, set once the write phase completes.
	Digest string
}

// Ready reports whether every destination reached READY: the quorum gate
// for the write phase.
func (t *Task) Ready() bool {
	for _, d := range t.Destinations {
		if d.State != outcome.StageReady {
			return false
		}
	}
	return true
}

// Completed reports whether every destination is STAGED.
func (t *Task) Completed() bool {
	for _, d := range t.Destinations {
		if d.State != outcome.StageStaged {
			return false
		}
	}
	return true
}

// Failed reports whether any destination is in a failure state.
func (t *Task) Failed() bool {
	for _, d := range t.Destinations {
		switch d.State {
		case outcome.StageStaged, outcome.StageReady, outcome.StageInProgress, outcome.StageUnstaged:
		default:
			return true
		}
	}
	return false
}

// Aborted reports whether rollback left files behind at any destination.
func (t *Task) Aborted() bool {
	for _, d := range t.Destinations {
		if d.State == outcome.StageCouldNotRemove {
			return true
		}
	}
	return false
}

// WriteFailed reports whether any destination hit a write failure, the
// condition the circuit breaker counts.
func (t *Task) WriteFailed() bool {
	for _, d := range t.Destinations {
		if d.State == outcome.StageDataWriteFailure || d.State == outcome.StageChecksumWriteFailure {
			return true
		}
	}
	return false
}

// Result classifies the finished task from its destination states.
func (t *Task) Result() outcome.StagingResult {
	switch {
	case t.Completed():
		return outcome.StagingStaged
	case t.Aborted():
		return outcome.StagingAborted
	case t.Failed():
		return outcome.StagingFailed
	default:
		return outcome.StagingUnknown
	}
}
