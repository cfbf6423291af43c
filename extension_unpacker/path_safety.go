package extension_unpacker

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/expack/go-extension-unpacker/extension_unpacker/unpacker_errors"
	"github.com/expack/go-extension-unpacker/utils"
)

var windowsDrivePrefix = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// ValidateEntryPath decides from the path text alone whether an archive
// entry may be materialized under the destination. It is purely lexical:
// no symlink resolution, no stat. The goal is to reject any path whose
// textual form could escape, independent of what currently exists on disk.
//
// Callers must run it twice per entry, on the stored path and again on the
// stripped path, because stripping can introduce an escape the original
// path did not have.
func ValidateEntryPath(rawPath string) error {
	// directory self-references are benign no-ops
	if rawPath == "" || rawPath == "." || rawPath == "./" {
		return nil
	}
	// drive-absolute paths are hostile regardless of host OS
	if windowsDrivePrefix.MatchString(rawPath) {
		return &unpacker_errors.PathEscapeError{Path: rawPath}
	}
	normalized := normalizeEntryPath(rawPath)
	if normalized == ".." || strings.HasPrefix(normalized, "../") {
		return &unpacker_errors.PathEscapeError{Path: rawPath}
	}
	if strings.HasPrefix(normalized, "/") {
		return &unpacker_errors.PathEscapeError{Path: rawPath}
	}
	return nil
}

// normalizeEntryPath rewrites archive separators to forward slashes and
// collapses the result lexically. Archives built on one OS may embed the
// other's separator; the host separator is irrelevant to entry paths.
func normalizeEntryPath(rawPath string) string {
	return path.Clean(strings.ReplaceAll(rawPath, `\`, "/"))
}

// StripPathComponents drops the first n leading segments of an entry path,
// following tar's --strip-components semantics. ok is false when nothing
// remains, which marks the entry as the archive's own wrapper directory:
// skip it, write nothing.
//
// Stripping operates on the raw segments before full normalization, so the
// result must go through ValidateEntryPath again; stripping never preserves
// safety on its own.
func StripPathComponents(rawPath string, n int) (stripped string, ok bool) {
	segments := strings.Split(strings.ReplaceAll(rawPath, `\`, "/"), "/")
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		kept = append(kept, segment)
	}
	if n >= len(kept) {
		return "", false
	}
	stripped = path.Clean(strings.Join(kept[n:], "/"))
	if stripped == "." {
		return "", false
	}
	return stripped, true
}

// securePath joins destDir with a stripped entry path and verifies the
// resolved absolute path still lies within destDir. Defense in depth past
// the lexical validator: it catches any normalization disagreement between
// the validator and the OS path resolver. The boundary is recomputed from
// destDir on every call, never cached.
func securePath(destDir, relPath string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(relPath))
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return "", unpacker_errors.New(err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", unpacker_errors.New(err)
	}
	absDest = utils.CleanPathKeepingUnixSlash(absDest)
	absTarget = utils.CleanPathKeepingUnixSlash(absTarget)
	if absTarget != absDest && !strings.HasPrefix(absTarget, absDest+utils.FolderSuffix) {
		return "", &unpacker_errors.PathEscapeError{Path: relPath}
	}
	return target, nil
}
