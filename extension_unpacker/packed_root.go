package extension_unpacker

import (
	"os"

	"github.com/expack/go-extension-unpacker/extension_unpacker/unpacker_errors"
	"github.com/expack/go-extension-unpacker/utils"
)

// PackedRootDirName is the conventional top-level directory of an
// extension package archive.
const PackedRootDirName = "package"

// ResolvePackedRootDir locates the top-level directory of a completed
// extraction that holds the installable content: a directory named
// "package" when present, otherwise exactly one subdirectory. Zero or
// several candidates is an ambiguous layout. This runs only after
// extraction has already succeeded safely; it is not a security boundary.
func ResolvePackedRootDir(extractDir string) (string, error) {
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return "", unpacker_errors.New(err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	for _, name := range dirs {
		if name == PackedRootDirName {
			return utils.JoinPathKeepingUnixSlash(extractDir, name), nil
		}
	}
	if len(dirs) == 1 {
		return utils.JoinPathKeepingUnixSlash(extractDir, dirs[0]), nil
	}
	return "", &unpacker_errors.AmbiguousLayoutError{Dir: extractDir, Found: len(dirs)}
}
