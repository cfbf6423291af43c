package extension_unpacker

import (
	"archive/zip"
	"context"
	"os"

	"github.com/expack/go-extension-unpacker/extension_unpacker/unpacker_errors"
	"github.com/expack/go-extension-unpacker/utils"
)

// ZipUnpacker extracts zip archives. Zip has no central-directory reader
// that can be streamed safely, so the archive's file size is checked
// against the budget before the directory is loaded at all, and every
// entry then goes through the same filter pipeline as tar. Entries are
// processed strictly sequentially; the budget counters stay simple and
// peak memory stays bounded.
type ZipUnpacker struct {
	StripComponents int
	Limits          Limits
}

func (zu ZipUnpacker) ExtractArchive(ctx context.Context, archivePath, destDir string) error {
	b := newBudget(zu.Limits)
	info, err := os.Stat(archivePath)
	if err != nil {
		return unpacker_errors.New(err)
	}
	if err := b.checkArchiveSize(info.Size()); err != nil {
		return err
	}
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return unpacker_errors.New(err)
	}
	defer zr.Close()

	if int64(len(zr.File)) > b.limits.MaxEntries {
		return &unpacker_errors.LimitExceededError{Limit: LimitEntries, Max: b.limits.MaxEntries}
	}
	for _, entry := range zr.File {
		if err := ctx.Err(); err != nil {
			return unpacker_errors.New(err)
		}
		if err := zu.extractEntry(b, entry, destDir); err != nil {
			return err
		}
	}
	return nil
}

func (zu ZipUnpacker) extractEntry(b *budget, entry *zip.File, destDir string) error {
	if err := ValidateEntryPath(entry.Name); err != nil {
		return err
	}
	mode := entry.Mode()
	isDir := entry.FileInfo().IsDir() || utils.IsFolder(entry.Name)
	if !isDir && mode&os.ModeType != 0 {
		return &unpacker_errors.EntryTypeError{Path: entry.Name, Type: zipTypeName(mode)}
	}
	relPath, ok := StripPathComponents(entry.Name, zu.StripComponents)
	if !ok {
		return nil
	}
	if err := ValidateEntryPath(relPath); err != nil {
		return err
	}
	target, err := securePath(destDir, relPath)
	if err != nil {
		return err
	}
	if err := b.checkEntryCount(); err != nil {
		return err
	}
	if isDir {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return unpacker_errors.New(err)
		}
		return nil
	}
	// the declared size may lie, so this only pre-filters; the budget
	// reader enforces the real count chunk by chunk
	if entry.UncompressedSize64 > uint64(b.limits.MaxEntryBytes) {
		return &unpacker_errors.LimitExceededError{Limit: LimitEntryBytes, Max: b.limits.MaxEntryBytes, Entry: relPath}
	}
	rc, err := entry.Open()
	if err != nil {
		return unpacker_errors.New(err)
	}
	defer rc.Close()
	return writeEntryFile(b, target, relPath, rc, mode.Perm())
}

func zipTypeName(mode os.FileMode) string {
	switch {
	case mode&os.ModeSymlink != 0:
		return "symlink"
	case mode&os.ModeDevice != 0:
		return "device"
	case mode&os.ModeNamedPipe != 0:
		return "fifo"
	case mode&os.ModeSocket != 0:
		return "socket"
	default:
		return "special"
	}
}
