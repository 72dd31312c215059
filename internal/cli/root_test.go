package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digipres/fixity/internal/config"
)

func TestNewRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{
		"create", "validate-tree", "validate-manifest",
		"compare-trees", "compare-manifests", "stage", "algorithms", "runs",
	} {
		assert.Contains(t, names, want)
	}
}

func TestBuildRun_FlagBeatsFileBeatsDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "fixity.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("processes: 4\ncache_size: 50\n"), 0o644))

	opts := &RootOptions{ConfigFile: configPath}
	cmd := &cobra.Command{}
	cmd.Flags().IntVarP(&opts.Processes, "processes", "p", config.DefaultProcesses, "")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "")
	cmd.Flags().IntVar(&opts.CacheSize, "cache-size", config.DefaultCacheSize, "")
	cmd.Flags().BoolVar(&opts.CountFiles, "count-files", true, "")
	cmd.Flags().StringSliceVar(&opts.Email, "email", nil, "")
	require.NoError(t, cmd.Flags().Set("processes", "9"))

	cfg, err := opts.buildRun(cmd)
	require.NoError(t, err)

	// The explicit flag wins over the file value.
	assert.Equal(t, 9, cfg.Processes)
	// The file value wins over the built-in default.
	assert.Equal(t, 50, cfg.CacheSize)
	// Everything else keeps its default.
	assert.Equal(t, config.DefaultAlgorithm, cfg.Algorithm)
}

func TestBuildRun_BadConfigFile(t *testing.T) {
	opts := &RootOptions{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")}
	cmd := &cobra.Command{}

	_, err := opts.buildRun(cmd)
	require.Error(t, err)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "errors detected")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad path", errors.New("x"))))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("plain error")))
}

func TestAlgorithmsCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"algorithms"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "sha256")
	assert.Contains(t, out.String(), "blake3")
	assert.Contains(t, out.String(), "xxh64")
}

func TestCreateCommand_UnsupportedAlgorithm(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"create", "--tree", t.TempDir(), "-a", "crc32", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCreateCommand_EndToEnd(t *testing.T) {
	primary := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(primary, "a.txt"), []byte("alpha"), 0o644))
	tree := filepath.Join(t.TempDir(), "checksums")
	output := t.TempDir()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"create", "--tree", tree, "--output", output, primary})

	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(tree, "a.txt.sha256"))
	assert.Contains(t, out.String(), "Checksum creation results")
	assert.Contains(t, out.String(), "File added to checksum tree: 1")

	// The run lands in the history database under the output directory.
	assert.FileExists(t, filepath.Join(output, "fixity.db"))

	var runsOut bytes.Buffer
	runs := NewRootCommand()
	runs.SetOut(&runsOut)
	runs.SetErr(&bytes.Buffer{})
	runs.SetArgs([]string{"runs", "--output", output})
	require.NoError(t, runs.Execute())
	assert.Contains(t, runsOut.String(), "create")
	assert.Contains(t, runsOut.String(), primary)
}

func TestValidateTreeCommand_ReportsFailureExitCode(t *testing.T) {
	primary := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(primary, "a.txt"), []byte("alpha"), 0o644))
	tree := filepath.Join(t.TempDir(), "checksums")
	output := t.TempDir()

	create := NewRootCommand()
	create.SetOut(&bytes.Buffer{})
	create.SetErr(&bytes.Buffer{})
	create.SetArgs([]string{"create", "--tree", tree, "--output", output, primary})
	require.NoError(t, create.Execute())

	// Corrupt the file; validation must exit with the failure code.
	require.NoError(t, os.WriteFile(filepath.Join(primary, "a.txt"), []byte("bitrot"), 0o644))

	validate := NewRootCommand()
	validate.SetOut(&bytes.Buffer{})
	validate.SetErr(&bytes.Buffer{})
	validate.SetArgs([]string{"validate-tree", "--tree", tree, "--output", output, primary})

	err := validate.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateTreeCommand_DescendsIntoSubdirectories(t *testing.T) {
	primary := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(primary, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(primary, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(primary, "sub", "b.txt"), []byte("beta"), 0o644))
	tree := filepath.Join(t.TempDir(), "checksums")
	output := t.TempDir()

	create := NewRootCommand()
	create.SetOut(&bytes.Buffer{})
	create.SetErr(&bytes.Buffer{})
	create.SetArgs([]string{"create", "--tree", tree, "--output", output, primary})
	require.NoError(t, create.Execute())
	require.FileExists(t, filepath.Join(tree, "sub", "b.txt.sha256"))

	// Nested sidecars are checked and nested data files are not mistaken
	// for additional files.
	var out bytes.Buffer
	validate := NewRootCommand()
	validate.SetOut(&out)
	validate.SetErr(&bytes.Buffer{})
	validate.SetArgs([]string{"validate-tree", "--tree", tree, "--output", output, primary})

	require.NoError(t, validate.Execute())
	assert.Contains(t, out.String(), "File found and checksum valid: 2")
}

func TestStageCommand_LayoutMismatch(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"stage",
		"--dest", t.TempDir(), "--dest", t.TempDir(),
		"--tree", t.TempDir(),
		t.TempDir(),
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
