package extension_unpacker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/expack/go-extension-unpacker/extension_unpacker/unpacker_errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipUnpackerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "extension.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "package/", mode: os.ModeDir | 0o755},
		{name: "package/manifest.json", body: `{"name":"demo"}`},
		{name: "package/bin/run.sh", body: "#!/bin/sh\n", mode: 0o755},
	})

	destDir := t.TempDir()
	zu := ZipUnpacker{}
	require.NoError(t, zu.ExtractArchive(context.Background(), archivePath, destDir))

	assert.Equal(t, `{"name":"demo"}`, readFile(t, filepath.Join(destDir, "package", "manifest.json")))

	info, err := os.Stat(filepath.Join(destDir, "package", "bin", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestZipUnpackerStripComponents(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "extension.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "package/", mode: os.ModeDir | 0o755},
		{name: "package/manifest.json", body: "{}"},
	})

	destDir := t.TempDir()
	zu := ZipUnpacker{StripComponents: 1}
	require.NoError(t, zu.ExtractArchive(context.Background(), archivePath, destDir))

	assert.False(t, pathExists(filepath.Join(destDir, "package")))
	assert.Equal(t, "{}", readFile(t, filepath.Join(destDir, "manifest.json")))
}

func TestZipUnpackerRejectsTraversalEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "../evil.txt", body: "bad"},
	})

	destDir := t.TempDir()
	zu := ZipUnpacker{}
	err := zu.ExtractArchive(context.Background(), archivePath, destDir)
	require.Error(t, err)
	assert.True(t, unpacker_errors.IsPathEscape(err))
	assert.False(t, pathExists(filepath.Join(filepath.Dir(destDir), "evil.txt")))
}

func TestZipUnpackerRejectsSymlinkEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "links.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "link", body: "safe/target.txt", mode: os.ModeSymlink | 0o777},
	})

	zu := ZipUnpacker{}
	err := zu.ExtractArchive(context.Background(), archivePath, t.TempDir())
	require.Error(t, err)
	assert.True(t, unpacker_errors.IsDisallowedEntryType(err))
	assert.Contains(t, err.Error(), "symlink")
}

// The entry count is known from the central directory, so the limit trips
// before anything is written at all.
func TestZipUnpackerEntryCountLimit(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "many.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "a.txt", body: "1"},
		{name: "b.txt", body: "2"},
		{name: "c.txt", body: "3"},
		{name: "d.txt", body: "4"},
	})

	destDir := t.TempDir()
	zu := ZipUnpacker{Limits: Limits{MaxEntries: 3}}
	err := zu.ExtractArchive(context.Background(), archivePath, destDir)
	require.Error(t, err)
	assert.True(t, unpacker_errors.IsLimitExceeded(err))

	entries, readErr := os.ReadDir(destDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestZipUnpackerEntryBytesLimit(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "big.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "big.bin", body: strings.Repeat("x", 1001)},
	})

	destDir := t.TempDir()
	zu := ZipUnpacker{Limits: Limits{MaxEntryBytes: 1000}}
	err := zu.ExtractArchive(context.Background(), archivePath, destDir)
	require.Error(t, err)
	assert.True(t, unpacker_errors.IsLimitExceeded(err))
	assert.False(t, pathExists(filepath.Join(destDir, "big.bin")))
}

func TestZipUnpackerTotalBytesLimitRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "total.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "first.bin", body: strings.Repeat("a", 600)},
		{name: "second.bin", body: strings.Repeat("b", 600)},
	})

	destDir := t.TempDir()
	zu := ZipUnpacker{Limits: Limits{MaxExtractedBytes: 1000}}
	err := zu.ExtractArchive(context.Background(), archivePath, destDir)
	require.Error(t, err)
	assert.True(t, unpacker_errors.IsLimitExceeded(err))

	assert.True(t, pathExists(filepath.Join(destDir, "first.bin")))
	assert.False(t, pathExists(filepath.Join(destDir, "second.bin")))
}

// The zip path loads the whole central directory, so the archive's on-disk
// size is bounded before any parsing happens.
func TestZipUnpackerArchiveSizeLimit(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "sized.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "file.txt", body: strings.Repeat("x", 4096)},
	})

	zu := ZipUnpacker{Limits: Limits{MaxArchiveBytes: 64}}
	err := zu.ExtractArchive(context.Background(), archivePath, t.TempDir())
	require.Error(t, err)
	assert.True(t, unpacker_errors.IsLimitExceeded(err))
	assert.Contains(t, err.Error(), LimitArchiveBytes)
}

// Re-extraction into a non-empty destination overwrites silently; cleanup
// between attempts is documented caller responsibility.
func TestZipUnpackerOverwritesSilently(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "extension.zip")
	writeZipArchive(t, archivePath, []zipEntry{
		{name: "file.txt", body: "fresh"},
	})

	destDir := t.TempDir()
	stale := filepath.Join(destDir, "file.txt")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	zu := ZipUnpacker{}
	require.NoError(t, zu.ExtractArchive(context.Background(), archivePath, destDir))
	assert.Equal(t, "fresh", readFile(t, stale))
}

func TestZipUnpackerNotAZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "fake.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("this is not a zip"), 0o644))

	zu := ZipUnpacker{}
	err := zu.ExtractArchive(context.Background(), archivePath, t.TempDir())
	require.Error(t, err)
}
