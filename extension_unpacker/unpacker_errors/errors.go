package unpacker_errors

import (
	"errors"
	"fmt"
	"time"
)

// UnpackError wraps OS and codec failures that occur while unpacking, so
// callers can distinguish them from the engine's own refusals below.
type UnpackError struct {
	err error
}

func New(err error) *UnpackError {
	return &UnpackError{err: err}
}

func (ue UnpackError) Error() string {
	return fmt.Sprintf("Failed to unpack archive err:%s", ue.err.Error())
}

func (ue UnpackError) Unwrap() error {
	return ue.err
}

// UnsupportedArchiveError reports a filename whose suffix maps to no known
// archive kind. Extraction is never attempted for such files.
type UnsupportedArchiveError struct {
	Filename string
}

func (ua UnsupportedArchiveError) Error() string {
	return fmt.Sprintf("unsupported archive suffix: %s", ua.Filename)
}

// PathEscapeError reports an entry whose path, raw or stripped, would
// resolve outside the destination directory.
type PathEscapeError struct {
	Path string
}

func (pe PathEscapeError) Error() string {
	return fmt.Sprintf("entry path escapes destination directory: %s", pe.Path)
}

// EntryTypeError reports an entry that is neither a regular file nor a
// directory. Symlinks, hardlinks, devices, FIFOs and sockets are never
// materialized.
type EntryTypeError struct {
	Path string
	Type string
}

func (et EntryTypeError) Error() string {
	return fmt.Sprintf("disallowed %s entry: %s", et.Type, et.Path)
}

// LimitExceededError reports a crossed resource limit. Entry is set when a
// specific entry crossed it.
type LimitExceededError struct {
	Limit string
	Max   int64
	Entry string
}

func (le LimitExceededError) Error() string {
	if le.Entry != "" {
		return fmt.Sprintf("%s limit of %d exceeded by entry %s", le.Limit, le.Max, le.Entry)
	}
	return fmt.Sprintf("%s limit of %d exceeded", le.Limit, le.Max)
}

// TimeoutError reports that the whole extraction ran past its deadline.
type TimeoutError struct {
	Label   string
	Timeout time.Duration
}

func (te TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", te.Label, te.Timeout)
}

// AmbiguousLayoutError reports that the packed root of an extracted archive
// could not be identified. Installer-facing, not a security failure.
type AmbiguousLayoutError struct {
	Dir   string
	Found int
}

func (al AmbiguousLayoutError) Error() string {
	return fmt.Sprintf("cannot resolve packed root dir in %s: found %d top-level directories", al.Dir, al.Found)
}

func IsUnsupportedArchive(err error) bool {
	var target *UnsupportedArchiveError
	return errors.As(err, &target)
}

func IsPathEscape(err error) bool {
	var target *PathEscapeError
	return errors.As(err, &target)
}

func IsDisallowedEntryType(err error) bool {
	var target *EntryTypeError
	return errors.As(err, &target)
}

func IsLimitExceeded(err error) bool {
	var target *LimitExceededError
	return errors.As(err, &target)
}

func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

func IsAmbiguousLayout(err error) bool {
	var target *AmbiguousLayoutError
	return errors.As(err, &target)
}
