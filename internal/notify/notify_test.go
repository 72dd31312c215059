package notify

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailerFromEnv(t *testing.T) {
	t.Setenv("MAIL_SERVER", "smtp.example.org")
	t.Setenv("MAIL_SERVER_PORT", "25")
	t.Setenv("MAIL_SENDER_ADDRESS", "fixity@example.org")

	m, err := NewMailerFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.org", m.Server)
	assert.Equal(t, "25", m.Port)
	assert.Equal(t, "fixity@example.org", m.Sender)
}

func TestNewMailerFromEnv_Incomplete(t *testing.T) {
	t.Setenv("MAIL_SERVER", "smtp.example.org")
	t.Setenv("MAIL_SERVER_PORT", "")
	t.Setenv("MAIL_SENDER_ADDRESS", "")

	_, err := NewMailerFromEnv()
	require.Error(t, err)
}

func TestBuildMessage_PlainAttachments(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "invalid.csv")
	require.NoError(t, os.WriteFile(report, []byte("path\n*/a.txt\n"), 0o644))

	msg, err := buildMessage("fixity@example.org", []string{"curator@example.org"},
		"Checksum validation report", "summary body", []string{report}, false)
	require.NoError(t, err)

	text := string(msg)
	assert.Contains(t, text, "From: fixity@example.org")
	assert.Contains(t, text, "Bcc: curator@example.org")
	assert.Contains(t, text, "Subject: Checksum validation report")
	assert.Contains(t, text, "summary body")
	assert.Contains(t, text, `filename="invalid.csv"`)
}

func TestBuildMessage_UnreadableAttachmentSkipped(t *testing.T) {
	msg, err := buildMessage("s@x", []string{"r@x"}, "subject", "body",
		[]string{filepath.Join(t.TempDir(), "absent.csv")}, false)
	require.NoError(t, err)
	assert.NotContains(t, string(msg), "absent.csv")
}

func TestBuildMessage_CompressedBundle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "missing.csv")
	b := filepath.Join(dir, "invalid.csv")
	require.NoError(t, os.WriteFile(a, []byte("path\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("path\n"), 0o644))

	msg, err := buildMessage("s@x", []string{"r@x"}, "subject", "body", []string{a, b}, true)
	require.NoError(t, err)
	assert.Contains(t, string(msg), `filename="reports.zip"`)
	// Individual file names appear only inside the archive.
	assert.NotContains(t, string(msg), `filename="missing.csv"`)
}

func TestZipFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("path,size\n*/a,10\n"), 0o644))

	archive, err := zipFiles([]string{path})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "report.csv", zr.File[0].Name)
}

func TestAttachmentsSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o644))

	assert.Equal(t, int64(1024), AttachmentsSize([]string{path}))
	assert.Equal(t, int64(1024), AttachmentsSize([]string{path, filepath.Join(dir, "absent")}))
}
