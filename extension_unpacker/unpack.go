package extension_unpacker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/expack/go-extension-unpacker/extension_unpacker/unpacker_errors"
)

// Params describes one extraction call.
type Params struct {
	ArchivePath string
	// DestDir must be an existing directory. It is the sole write
	// boundary of the operation; callers own serializing concurrent
	// extractions into the same destination.
	DestDir string
	// Kind selects the extraction driver; KindUnknown resolves it from
	// the filename suffix.
	Kind            ArchiveKind
	StripComponents int
	// Timeout bounds the whole operation and must be positive.
	Timeout time.Duration
	// TarGzipped forces gzip decoding of tar payloads on or off; nil
	// sniffs by magic bytes.
	TarGzipped *bool
	Limits     Limits
}

// ExtractArchive unpacks the archive at params.ArchivePath into
// params.DestDir. Extraction is all-or-nothing from the caller's view: on
// any error the destination may already hold partial output, and cleaning
// it up is the caller's responsibility (extract into a temp dir and rename
// on success for atomicity).
func ExtractArchive(params Params) error {
	kind := params.Kind
	if kind == KindUnknown {
		kind = ResolveArchiveKind(params.ArchivePath)
	}
	if kind == KindUnknown {
		return &unpacker_errors.UnsupportedArchiveError{Filename: params.ArchivePath}
	}
	if params.Timeout <= 0 {
		return unpacker_errors.New(fmt.Errorf("extraction timeout must be positive, got %v", params.Timeout))
	}
	info, err := os.Stat(params.DestDir)
	if err != nil {
		return unpacker_errors.New(err)
	}
	if !info.IsDir() {
		return unpacker_errors.New(fmt.Errorf("destination %v is not a directory", params.DestDir))
	}
	switch kind {
	case KindZip:
		unpacker := ZipUnpacker{StripComponents: params.StripComponents, Limits: params.Limits}
		return withTimeout("zip extraction", params.Timeout, func(ctx context.Context) error {
			return unpacker.ExtractArchive(ctx, params.ArchivePath, params.DestDir)
		})
	case KindTar:
		unpacker := TarUnpacker{StripComponents: params.StripComponents, Gzipped: params.TarGzipped, Limits: params.Limits}
		return withTimeout("tar extraction", params.Timeout, func(ctx context.Context) error {
			return unpacker.ExtractArchive(ctx, params.ArchivePath, params.DestDir)
		})
	default:
		return &unpacker_errors.UnsupportedArchiveError{Filename: params.ArchivePath}
	}
}

// withTimeout races op against the deadline. When the timer wins, the
// in-flight extraction is abandoned, not rolled back: files already
// written stay on disk for the caller to clean up.
func withTimeout(label string, timeout time.Duration, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return &unpacker_errors.TimeoutError{Label: label, Timeout: timeout}
		}
		return err
	case <-ctx.Done():
		return &unpacker_errors.TimeoutError{Label: label, Timeout: timeout}
	}
}
