package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixity.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixity.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestRecordRun_Roundtrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fixity.db"))
	require.NoError(t, err)
	defer s.Close()

	run := Run{
		ID:          uuid.NewString(),
		Action:      "create",
		PrimaryPath: "/archive",
		ReportDir:   "/reports/creation_reports/2026-08-24T1200",
		Started:     time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		Finished:    time.Date(2026, 8, 24, 12, 5, 0, 0, time.UTC),
		Outcomes: []OutcomeCount{
			{Kind: "added", Count: 40, Bytes: 123456},
			{Kind: "skipped", Count: 2},
		},
	}
	require.NoError(t, s.RecordRun(run))

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "create", got.Action)
	assert.Equal(t, "/archive", got.PrimaryPath)
	assert.Equal(t, run.ReportDir, got.ReportDir)
	assert.True(t, got.Started.Equal(run.Started))
	assert.True(t, got.Finished.Equal(run.Finished))
	assert.False(t, got.Interrupted)
	assert.Equal(t, run.Outcomes, got.Outcomes)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fixity.db"))
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordRun(Run{
			ID:          uuid.NewString(),
			Action:      "validate_tree",
			PrimaryPath: "/archive",
			ReportDir:   "/reports",
			Started:     base.Add(time.Duration(i) * time.Hour),
			Finished:    base.Add(time.Duration(i)*time.Hour + time.Minute),
		}))
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].Started.After(runs[1].Started))
}

func TestRecordRun_InterruptedFlag(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fixity.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RecordRun(Run{
		ID:          uuid.NewString(),
		Action:      "stage",
		PrimaryPath: "/intake",
		ReportDir:   "/reports",
		Started:     time.Now(),
		Finished:    time.Now(),
		Interrupted: true,
	}))

	runs, err := s.ListRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Interrupted)
}

func TestRecordRun_DuplicateID(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fixity.db"))
	require.NoError(t, err)
	defer s.Close()

	run := Run{
		ID:          "fixed-id",
		Action:      "create",
		PrimaryPath: "/a",
		ReportDir:   "/r",
		Started:     time.Now(),
		Finished:    time.Now(),
	}
	require.NoError(t, s.RecordRun(run))
	require.Error(t, s.RecordRun(run))
}
