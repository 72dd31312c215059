package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digipres/fixity/internal/outcome"
)

func taskWithStates(states ...outcome.StagingState) *Task {
	t := &Task{Source: "/intake/f"}
	for _, s := range states {
		t.Destinations = append(t.Destinations, &Destination{State: s})
	}
	return t
}

func TestTask_Result(t *testing.T) {
	cases := []struct {
		name   string
		states []outcome.StagingState
		want   outcome.StagingResult
	}{
		{"all staged", []outcome.StagingState{outcome.StageStaged, outcome.StageStaged}, outcome.StagingStaged},
		{"duplicate rolled back", []outcome.StagingState{outcome.StageDuplicateFile, outcome.StageUnstaged}, outcome.StagingFailed},
		{"write failure", []outcome.StagingState{outcome.StageDataWriteFailure, outcome.StageUnstaged}, outcome.StagingFailed},
		{"rollback left debris", []outcome.StagingState{outcome.StageCouldNotRemove, outcome.StageUnstaged}, outcome.StagingAborted},
		{"debris outranks other failures", []outcome.StagingState{outcome.StageCouldNotRemove, outcome.StageDataWriteFailure}, outcome.StagingAborted},
		{"unstaged only", []outcome.StagingState{outcome.StageUnstaged, outcome.StageUnstaged}, outcome.StagingUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, taskWithStates(tc.states...).Result())
		})
	}
}

func TestTask_Gates(t *testing.T) {
	ready := taskWithStates(outcome.StageReady, outcome.StageReady)
	assert.True(t, ready.Ready())
	assert.False(t, ready.Failed())

	mixed := taskWithStates(outcome.StageReady, outcome.StageDuplicateFile)
	assert.False(t, mixed.Ready())
	assert.True(t, mixed.Failed())
	assert.False(t, mixed.WriteFailed())

	writeFail := taskWithStates(outcome.StageChecksumWriteFailure, outcome.StageUnstaged)
	assert.True(t, writeFail.WriteFailed())
}
