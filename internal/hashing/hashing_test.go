package hashing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames_SortedAndComplete(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{"blake3", "md5", "sha1", "sha256", "sha512", "xxh64"}, names)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("sha256"))
	assert.True(t, Supported("blake3"))
	assert.False(t, Supported("crc32"))
	assert.False(t, Supported(""))
}

func TestNew_UnknownAlgorithm(t *testing.T) {
	_, err := New("whirlpool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whirlpool")
}

func TestDigestFile_KnownVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	digest, size, err := DigestFile(path, "sha256", DefaultBlockSize)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", digest)
}

func TestDigestFile_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	digest, size, err := DigestFile(path, "md5", DefaultBlockSize)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", digest)
}

func TestDigestFile_LargerThanBlockSize(t *testing.T) {
	// Content spanning multiple read blocks must produce the same digest as
	// a single-block read.
	content := strings.Repeat("0123456789", 1000)
	path := filepath.Join(t.TempDir(), "blocks.bin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	small, size, err := DigestFile(path, "sha1", 64)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)

	large, _, err := DigestFile(path, "sha1", DefaultBlockSize)
	require.NoError(t, err)
	assert.Equal(t, large, small)
}

func TestDigestFile_AllAlgorithms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("fixity test data"), 0o644))

	for _, name := range Names() {
		digest, _, err := DigestFile(path, name, DefaultBlockSize)
		require.NoError(t, err, "algorithm %s", name)
		assert.NotEmpty(t, digest, "algorithm %s", name)

		again, _, err := DigestFile(path, name, DefaultBlockSize)
		require.NoError(t, err)
		assert.Equal(t, digest, again, "algorithm %s must be deterministic", name)
	}
}

func TestDigestFile_MissingFile(t *testing.T) {
	_, _, err := DigestFile(filepath.Join(t.TempDir(), "absent"), "sha256", DefaultBlockSize)
	require.Error(t, err)
}

func TestDigestFile_UnknownAlgorithm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, _, err := DigestFile(path, "nope", DefaultBlockSize)
	require.Error(t, err)
}
