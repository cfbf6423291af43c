package extension_unpacker

import (
	"github.com/expack/go-extension-unpacker/extension_unpacker/unpacker_errors"
)

const (
	DefaultMaxArchiveBytes   int64 = 256 << 20
	DefaultMaxEntries        int64 = 50_000
	DefaultMaxExtractedBytes int64 = 512 << 20
	DefaultMaxEntryBytes     int64 = 256 << 20
)

// Limit names carried by LimitExceededError.
const (
	LimitArchiveBytes   = "archive size"
	LimitEntries        = "entry count"
	LimitExtractedBytes = "total extracted bytes"
	LimitEntryBytes     = "entry bytes"
)

// Limits bounds a single extraction. The zero value means "use the
// defaults": any non-positive field is replaced with its conservative
// default, never interpreted as unlimited.
type Limits struct {
	MaxArchiveBytes   int64
	MaxEntries        int64
	MaxExtractedBytes int64
	MaxEntryBytes     int64
}

func (l Limits) withDefaults() Limits {
	if l.MaxArchiveBytes <= 0 {
		l.MaxArchiveBytes = DefaultMaxArchiveBytes
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultMaxEntries
	}
	if l.MaxExtractedBytes <= 0 {
		l.MaxExtractedBytes = DefaultMaxExtractedBytes
	}
	if l.MaxEntryBytes <= 0 {
		l.MaxEntryBytes = DefaultMaxEntryBytes
	}
	return l
}

// budget holds the running resource counters of one extraction call. Each
// call owns exactly one budget; counters are never shared across calls.
// Every check is fail-fast: the first crossing aborts the extraction.
type budget struct {
	limits     Limits
	entries    int64
	totalBytes int64
	entryBytes map[string]int64
}

func newBudget(limits Limits) *budget {
	return &budget{
		limits:     limits.withDefaults(),
		entryBytes: make(map[string]int64),
	}
}

func (b *budget) checkArchiveSize(size int64) error {
	if size > b.limits.MaxArchiveBytes {
		return &unpacker_errors.LimitExceededError{Limit: LimitArchiveBytes, Max: b.limits.MaxArchiveBytes}
	}
	return nil
}

func (b *budget) checkEntryCount() error {
	b.entries++
	if b.entries > b.limits.MaxEntries {
		return &unpacker_errors.LimitExceededError{Limit: LimitEntries, Max: b.limits.MaxEntries}
	}
	return nil
}

// trackEntryBytes accumulates per entry path so an archive carrying the
// same path twice cannot split one oversized payload across entries.
func (b *budget) trackEntryBytes(entry string, n int64) error {
	b.entryBytes[entry] += n
	if b.entryBytes[entry] > b.limits.MaxEntryBytes {
		return &unpacker_errors.LimitExceededError{Limit: LimitEntryBytes, Max: b.limits.MaxEntryBytes, Entry: entry}
	}
	return nil
}

func (b *budget) trackTotalBytes(n int64) error {
	b.totalBytes += n
	if b.totalBytes > b.limits.MaxExtractedBytes {
		return &unpacker_errors.LimitExceededError{Limit: LimitExtractedBytes, Max: b.limits.MaxExtractedBytes}
	}
	return nil
}
