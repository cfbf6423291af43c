package extension_unpacker

import "strings"

// ArchiveKind selects the extraction driver for an archive file.
type ArchiveKind int

const (
	KindUnknown ArchiveKind = iota
	KindTar
	KindZip
)

func (k ArchiveKind) String() string {
	switch k {
	case KindTar:
		return "tar"
	case KindZip:
		return "zip"
	default:
		return "unknown"
	}
}

const (
	zipExt   = ".zip"
	tarExt   = ".tar"
	tarGzExt = ".tar.gz"
	tgzExt   = ".tgz"
)

// ResolveArchiveKind maps a filename suffix to an archive kind. Matching is
// case-insensitive and suffix-only; file contents are never sniffed here.
// Anything that is not KindTar or KindZip must be refused by the caller.
func ResolveArchiveKind(filename string) ArchiveKind {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, zipExt):
		return KindZip
	case strings.HasSuffix(name, tarGzExt), strings.HasSuffix(name, tgzExt), strings.HasSuffix(name, tarExt):
		return KindTar
	default:
		return KindUnknown
	}
}
