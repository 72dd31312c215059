// Package outcome defines the closed result classifications produced by
// fixity operations. Each enumeration carries a stable lowercase name used
// to key report partitions and a human-readable description used in
// summaries. The sets are fixed at compile time; new outcomes are added
// here, never at runtime.
package outcome

// Outcome is implemented by every terminal classification. Name keys the
// report partition a record is written to; Text is the display description;
// Exception reports whether records of this kind are attached to
// notifications.
type Outcome interface {
	Name() string
	Text() string
	Exception() bool
}

// Action identifies one of the fixity operations.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionValidateManifest
	ActionValidateTree
	ActionStageFiles
	ActionCompareTrees
	ActionCompareManifests
)

var actionTitles = map[Action]string{
	ActionCreate:           "Checksum creation",
	ActionValidateManifest: "Manifest validation",
	ActionValidateTree:     "Checksum tree validation",
	ActionStageFiles:       "File staging",
	ActionCompareTrees:     "Checksum tree comparison",
	ActionCompareManifests: "Manifest comparison",
}

// Title returns the display title of the action.
func (a Action) Title() string { return actionTitles[a] }

var actionNames = map[Action]string{
	ActionCreate:           "create",
	ActionValidateManifest: "validate_manifest",
	ActionValidateTree:     "validate_tree",
	ActionStageFiles:       "stage",
	ActionCompareTrees:     "compare_trees",
	ActionCompareManifests: "compare_manifests",
}

// Name returns the stable machine-readable identifier of the action.
func (a Action) Name() string { return actionNames[a] }

// Category returns the report directory grouping for the action.
func (a Action) Category() string {
	switch a {
	case ActionCreate:
		return "creation_reports"
	case ActionValidateManifest, ActionValidateTree:
		return "validation_reports"
	case ActionCompareTrees, ActionCompareManifests:
		return "comparison_reports"
	case ActionStageFiles:
		return "staging_reports"
	default:
		return "other_reports"
	}
}

// Creation classifies the outcome of adding a file to a checksum tree.
type Creation int

const (
	CreationAdded Creation = iota + 1
	CreationSkipped
	CreationFailed
)

var creationInfo = map[Creation]struct {
	name, text string
	exception  bool
}{
	CreationAdded:   {"added", "File added to checksum tree", true},
	CreationSkipped: {"skipped", "File already listed in checksum tree", false},
	CreationFailed:  {"failed", "Hash generation failed for file", true},
}

func (c Creation) Name() string    { return creationInfo[c].name }
func (c Creation) Text() string    { return creationInfo[c].text }
func (c Creation) Exception() bool { return creationInfo[c].exception }

// Validation classifies the outcome of checking a file against a recorded
// digest.
type Validation int

const (
	ValidationValid Validation = iota + 1
	ValidationInvalid
	ValidationMissing
	ValidationAdditional
	ValidationOSError
)

var validationInfo = map[Validation]struct {
	name, text string
	exception  bool
}{
	ValidationValid:      {"valid", "File found and checksum valid", false},
	ValidationInvalid:    {"invalid", "File found but checksum not valid", true},
	ValidationMissing:    {"missing", "File not found", true},
	ValidationAdditional: {"additional", "Unexpected file found", true},
	ValidationOSError:    {"oserror", "OS Error: cannot open file", true},
}

func (v Validation) Name() string    { return validationInfo[v].name }
func (v Validation) Text() string    { return validationInfo[v].text }
func (v Validation) Exception() bool { return validationInfo[v].exception }

// Comparison classifies the outcome of comparing a digest across nodes.
type Comparison int

const (
	ComparisonMatched Comparison = iota + 1
	ComparisonUnmatched
	ComparisonMissing
	ComparisonOSError
)

var comparisonInfo = map[Comparison]struct {
	name, text string
	exception  bool
}{
	ComparisonMatched:   {"matched", "File checksum matches on all nodes", false},
	ComparisonUnmatched: {"unmatched", "File checksum does not match on all nodes", true},
	ComparisonMissing:   {"missing", "Checksum missing from node", true},
	ComparisonOSError:   {"oserror", "OS Error: cannot open checksum file", true},
}

func (c Comparison) Name() string    { return comparisonInfo[c].name }
func (c Comparison) Text() string    { return comparisonInfo[c].text }
func (c Comparison) Exception() bool { return comparisonInfo[c].exception }

// StagingState is the per-destination state of the staging state machine.
type StagingState int

const (
	StageReady StagingState = iota + 1
	StageInProgress
	StageStaged
	StageDuplicateFile
	StageDuplicateChecksum
	StageDataWriteFailure
	StageChecksumWriteFailure
	StageChecksumMismatch
	StageUnstaged
	StageCouldNotRemove
)

var stagingStateText = map[StagingState]string{
	StageReady:                "Ready for staging",
	StageInProgress:           "Staging in progress",
	StageStaged:               "Staged",
	StageDuplicateFile:        "Duplicate data file",
	StageDuplicateChecksum:    "Duplicate checksum file",
	StageDataWriteFailure:     "Failed to write data file",
	StageChecksumWriteFailure: "Failed to write checksum file",
	StageChecksumMismatch:     "Checksum mismatch",
	StageUnstaged:             "Unstaged",
	StageCouldNotRemove:       "Could not remove unstaged file",
}

// Text returns the display description of the state.
func (s StagingState) Text() string { return stagingStateText[s] }

// StagingResult classifies a whole staging task from its destination states.
type StagingResult int

const (
	StagingStaged StagingResult = iota + 1
	StagingFailed
	StagingAborted
	StagingUnknown
)

var stagingResultInfo = map[StagingResult]struct {
	name, text string
	exception  bool
}{
	StagingStaged:  {"staged", "File staged to all destinations", false},
	StagingFailed:  {"failed", "File staging failed and was rolled back", true},
	StagingAborted: {"aborted", "File staging failed and could not be fully rolled back", true},
	StagingUnknown: {"unknown", "File staging ended in an unexpected state", true},
}

func (s StagingResult) Name() string    { return stagingResultInfo[s].name }
func (s StagingResult) Text() string    { return stagingResultInfo[s].text }
func (s StagingResult) Exception() bool { return stagingResultInfo[s].exception }
