package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionTitlesAndCategories(t *testing.T) {
	assert.Equal(t, "Checksum creation", ActionCreate.Title())
	assert.Equal(t, "creation_reports", ActionCreate.Category())
	assert.Equal(t, "validation_reports", ActionValidateManifest.Category())
	assert.Equal(t, "validation_reports", ActionValidateTree.Category())
	assert.Equal(t, "comparison_reports", ActionCompareTrees.Category())
	assert.Equal(t, "comparison_reports", ActionCompareManifests.Category())
	assert.Equal(t, "staging_reports", ActionStageFiles.Category())
	assert.Equal(t, "stage", ActionStageFiles.Name())
}

func TestOutcomeNamesAreStable(t *testing.T) {
	// Partition file names and history rows key off these; they must never
	// change.
	assert.Equal(t, "added", CreationAdded.Name())
	assert.Equal(t, "skipped", CreationSkipped.Name())
	assert.Equal(t, "failed", CreationFailed.Name())
	assert.Equal(t, "valid", ValidationValid.Name())
	assert.Equal(t, "invalid", ValidationInvalid.Name())
	assert.Equal(t, "missing", ValidationMissing.Name())
	assert.Equal(t, "additional", ValidationAdditional.Name())
	assert.Equal(t, "oserror", ValidationOSError.Name())
	assert.Equal(t, "matched", ComparisonMatched.Name())
	assert.Equal(t, "unmatched", ComparisonUnmatched.Name())
	assert.Equal(t, "staged", StagingStaged.Name())
	assert.Equal(t, "aborted", StagingAborted.Name())
}

func TestExceptionFlags(t *testing.T) {
	// Added files are attached to notifications; skips and valid results
	// are not.
	assert.True(t, CreationAdded.Exception())
	assert.False(t, CreationSkipped.Exception())
	assert.False(t, ValidationValid.Exception())
	assert.True(t, ValidationInvalid.Exception())
	assert.False(t, ComparisonMatched.Exception())
	assert.True(t, ComparisonMissing.Exception())
	assert.False(t, StagingStaged.Exception())
	assert.True(t, StagingFailed.Exception())
}

func TestStagingStateText(t *testing.T) {
	assert.Equal(t, "Staged", StageStaged.Text())
	assert.Equal(t, "Could not remove unstaged file", StageCouldNotRemove.Text())
}
