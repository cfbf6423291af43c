package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	FolderSuffix string = "/"
)

// IsFolder reports whether an archive entry name denotes a directory by
// the zip convention of a trailing slash.
func IsFolder(path string) bool {
	return strings.HasSuffix(path, FolderSuffix)
}

// In Windows, filepath.Clean operation will replace all slashes '/'
// to backslashes '\\'
// This can mess-up with the code that makes path comparisons - the
// containment check compares archive-style paths
func CleanPathKeepingUnixSlash(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func JoinPathKeepingUnixSlash(elem ...string) string {
	return filepath.ToSlash(filepath.Join(elem...))
}

// FileExists reports whether path names an existing regular file. Used by
// the installer to probe the extracted tree.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// ReadJsonFile decodes the JSON document at path into out. Used by the
// installer to read extracted package manifests.
func ReadJsonFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
