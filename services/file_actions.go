package services

import (
	"path/filepath"
	"strings"
)

// sanitizeFilename reduces an uploaded name to its base name so it cannot address
// anything outside the upload (e.g. "../../../etc/passwd" becomes "passwd").
// It returns "" when nothing usable remains.
func sanitizeFilename(filename string) string {
	name := strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/")
	name = filepath.Base(filepath.Clean("/" + name))
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}
