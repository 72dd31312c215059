package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digipres/fixity/internal/hashing"
	"github.com/digipres/fixity/internal/outcome"
)

func digestOf(t *testing.T, path string) string {
	t.Helper()
	digest, _, err := hashing.DigestFile(path, "sha256", 0)
	require.NoError(t, err)
	return digest
}

func TestValidateManifest_Scenarios(t *testing.T) {
	primary := t.TempDir()
	writeTree(t, primary, map[string]string{
		"good.txt":     "intact",
		"tampered.txt": "changed after manifest",
		"extra.txt":    "never listed",
	})

	var manifest string
	manifest += fmt.Sprintf("%s */good.txt\n", digestOf(t, filepath.Join(primary, "good.txt")))
	manifest += "0000000000000000000000000000000000000000000000000000000000000000 */tampered.txt\n"
	manifest += "1111111111111111111111111111111111111111111111111111111111111111 */gone.txt\n"
	manifestPath := filepath.Join(t.TempDir(), "manifest.sha256")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))

	cfg := testConfig(primary)
	cfg.ManifestPath = manifestPath
	sink := testSink(t, outcome.ActionValidateManifest, cfg)

	p := &ValidateManifest{Env: Env{Config: cfg, Sink: sink}}
	require.NoError(t, p.Run())

	assert.Equal(t, int64(1), sink.Count(outcome.ValidationValid))
	assert.Equal(t, int64(1), sink.Count(outcome.ValidationInvalid))
	assert.Equal(t, int64(1), sink.Count(outcome.ValidationMissing))
	assert.Equal(t, int64(1), sink.Count(outcome.ValidationAdditional))
}

func TestValidateManifest_CleanRun(t *testing.T) {
	primary := t.TempDir()
	writeTree(t, primary, map[string]string{"a.txt": "one", "sub/b.txt": "two"})

	manifest := fmt.Sprintf("%s */a.txt\n%s */sub/b.txt\n",
		digestOf(t, filepath.Join(primary, "a.txt")),
		digestOf(t, filepath.Join(primary, "sub", "b.txt")))
	manifestPath := filepath.Join(t.TempDir(), "manifest.sha256")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))

	cfg := testConfig(primary)
	cfg.ManifestPath = manifestPath
	sink := testSink(t, outcome.ActionValidateManifest, cfg)

	require.NoError(t, (&ValidateManifest{Env: Env{Config: cfg, Sink: sink}}).Run())
	assert.Equal(t, int64(2), sink.Count(outcome.ValidationValid))
	assert.Equal(t, int64(0), sink.Count(outcome.ValidationAdditional))
	assert.False(t, sink.ErrorsDetected())
}

func TestValidateManifest_MissingManifest(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.ManifestPath = filepath.Join(t.TempDir(), "absent.sha256")
	sink := testSink(t, outcome.ActionValidateManifest, cfg)

	err := (&ValidateManifest{Env: Env{Config: cfg, Sink: sink}}).Run()
	require.Error(t, err)
}
