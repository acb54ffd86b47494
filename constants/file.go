package constants

import "strings"

// Kind is the document shape that decides which extraction chain runs.
type Kind string

const (
	TABULAR Kind = "TABULAR"
	TEXT    Kind = "TEXT"
	PDF     Kind = "PDF"
	IMAGE   Kind = "IMAGE"
)

// MaxFileSize is the upload ceiling for a single document.
const MaxFileSize = 50 << 20

// AllowedExtensions holds the extensions accepted by the upload and batch surfaces.
var AllowedExtensions = map[string]struct{}{
	"txt":  {},
	"pdf":  {},
	"xlsx": {},
	"xls":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"bmp":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToKind routes a normalized extension to a document kind.
// Unknown extensions map to the empty kind.
func MapExtToKind(ext string) Kind {
	switch NormalizeExt(ext) {
	case "xlsx", "xls":
		return TABULAR
	case "txt":
		return TEXT
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "bmp":
		return IMAGE
	default:
		return ""
	}
}

// ExtFromFilename returns the normalized extension of name, or "" when it has none.
func ExtFromFilename(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return NormalizeExt(name[i+1:])
}

// SortedExtensions returns AllowedExtensions in a stable order for display.
func SortedExtensions() []string {
	return []string{"txt", "pdf", "xlsx", "xls", "jpg", "jpeg", "png", "bmp"}
}
