package core

import (
	"strings"
	"unicode/utf8"
)

// ReservedPrefix marks names the storage backend keeps for in-flight writes.
// No path segment may start with it.
const ReservedPrefix = ".tmp-"

// ValidPath reports whether p is an acceptable file path inside a partition.
// Paths are slash separated and relative. Empty, "." or ".." segments,
// segments starting with ReservedPrefix, backslashes and control
// characters are rejected.
func ValidPath(p string) bool {
	if p == "" || !utf8.ValidString(p) {
		return false
	}

	if strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return false
	}

	if strings.ContainsRune(p, '\\') {
		return false
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." || strings.HasPrefix(seg, ReservedPrefix) {
			return false
		}
	}

	return true
}

// ValidName reports whether name is a single path segment
func ValidName(name string) bool {
	return ValidPath(name) && !strings.Contains(name, "/")
}

// ValidDir reports whether dir is acceptable as an upload directory.
// The empty string and "/" mean the partition root.
func ValidDir(dir string) bool {
	dir = strings.Trim(dir, "/")
	return dir == "" || ValidPath(dir)
}
