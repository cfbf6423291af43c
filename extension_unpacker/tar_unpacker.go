package extension_unpacker

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/expack/go-extension-unpacker/compression"
	"github.com/expack/go-extension-unpacker/extension_unpacker/unpacker_errors"
)

const NotGzipCompressedError = "archive %v is not gzip compressed"

// TarUnpacker extracts tar and tar.gz archives entry by entry. Each entry
// passes the validate, strip, re-validate, containment and budget filter
// before any of its bytes reach disk, and the first violation aborts the
// whole extraction. Only regular files and directories are materialized.
type TarUnpacker struct {
	StripComponents int
	// Gzipped forces gzip decoding on or off; nil sniffs the payload
	// compression by magic bytes.
	Gzipped *bool
	Limits  Limits
}

func (tu TarUnpacker) ExtractArchive(ctx context.Context, archivePath, destDir string) error {
	b := newBudget(tu.Limits)
	info, err := os.Stat(archivePath)
	if err != nil {
		return unpacker_errors.New(err)
	}
	if err := b.checkArchiveSize(info.Size()); err != nil {
		return err
	}
	payload, err := tu.payloadReader(archivePath)
	if err != nil {
		return err
	}
	defer payload.Close()

	// the per-entry filter runs synchronously with the stream, so the
	// decoder cannot read ahead of validation
	tr := tar.NewReader(payload)
	for {
		if err := ctx.Err(); err != nil {
			return unpacker_errors.New(err)
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return unpacker_errors.New(err)
		}
		if err := tu.extractEntry(b, tr, header, destDir); err != nil {
			return err
		}
	}
}

func (tu TarUnpacker) payloadReader(archivePath string) (io.ReadCloser, error) {
	if tu.Gzipped != nil && !*tu.Gzipped {
		f, err := os.Open(archivePath)
		if err != nil {
			return nil, unpacker_errors.New(err)
		}
		return f, nil
	}
	reader, isCompressed, err := compression.NewReader(archivePath)
	if err != nil {
		return nil, unpacker_errors.New(err)
	}
	if tu.Gzipped != nil && *tu.Gzipped && !isCompressed {
		reader.Close()
		return nil, unpacker_errors.New(fmt.Errorf(NotGzipCompressedError, archivePath))
	}
	return reader, nil
}

// extractEntry runs the filter pipeline for one entry and, when every step
// passes, materializes it. Any failure is terminal for the whole archive:
// a violating entry marks the archive as hostile or corrupt, and partial
// extraction from it is an error, not a partial success.
func (tu TarUnpacker) extractEntry(b *budget, tr *tar.Reader, header *tar.Header, destDir string) error {
	if err := ValidateEntryPath(header.Name); err != nil {
		return err
	}
	switch header.Typeflag {
	case tar.TypeReg, tar.TypeDir:
	default:
		return &unpacker_errors.EntryTypeError{Path: header.Name, Type: tarTypeName(header.Typeflag)}
	}
	relPath, ok := StripPathComponents(header.Name, tu.StripComponents)
	if !ok {
		// the archive's own wrapper directory, nothing to write
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
	if header.Typeflag == tar.TypeDir {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return unpacker_errors.New(err)
		}
		return nil
	}
	if header.Size > b.limits.MaxEntryBytes {
		return &unpacker_errors.LimitExceededError{Limit: LimitEntryBytes, Max: b.limits.MaxEntryBytes, Entry: relPath}
	}
	return writeEntryFile(b, target, relPath, tr, os.FileMode(header.Mode))
}

func tarTypeName(typeflag byte) string {
	switch typeflag {
	case tar.TypeSymlink:
		return "symlink"
	case tar.TypeLink:
		return "hardlink"
	case tar.TypeChar:
		return "character device"
	case tar.TypeBlock:
		return "block device"
	case tar.TypeFifo:
		return "fifo"
	default:
		return fmt.Sprintf("type %q", typeflag)
	}
}
