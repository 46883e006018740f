package ingest

import (
	"path/filepath"
	"strings"
)

// Custodian derives the custodian attribute from the first directory
// segment under root, title-cased with separators folded to spaces.
func Custodian(root, absPath string) string {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "Unknown"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "Unknown"
	}
	seg := parts[0]
	seg = strings.NewReplacer("_", " ", "-", " ").Replace(seg)
	return strings.Title(strings.ToLower(seg)) //nolint:staticcheck // simple heuristic, not full Unicode title-casing
}

// doctypeByExt maps a lowercase, dot-less extension to a doctype label.
var doctypeByExt = map[string]string{
	"pdf":      "pdf",
	"docx":     "docx",
	"doc":      "docx",
	"txt":      "text",
	"log":      "text",
	"csv":      "text",
	"md":       "markdown",
	"markdown": "markdown",
	"eml":      "email",
}

// Doctype maps a file extension (no leading dot, any case) to the
// document's doctype.
func Doctype(ext string) string {
	if dt, ok := doctypeByExt[strings.ToLower(ext)]; ok {
		return dt
	}
	return "unknown"
}

// Ext returns the lowercase, dot-less extension of path.
func Ext(path string) string {
	e := filepath.Ext(path)
	return strings.ToLower(strings.TrimPrefix(e, "."))
}
