package ingest

import (
	"path/filepath"
	"strings"

	"github.com/izabele-1801/agiliza-backend/constants"
)

// AllowedExt checks if a file extension is one the engine accepts.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.'). Office
// lock files ("~$pedido.xlsx") count as hidden too.
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$")
}
