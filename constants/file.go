package constants

import "strings"

// File formats understood by the text extractor.
const (
	TEXT  = "TEXT"
	PDF   = "PDF"
	WORD  = "WORD"
	HTML  = "HTML"
	IMAGE = "IMAGE"
)

// FileTypes holds the allowed values for documents.file_type.
var FileTypes = []string{TEXT, PDF, WORD, HTML, IMAGE}

var extFormats = map[string]string{
	"txt":  TEXT,
	"text": TEXT,
	"md":   TEXT,
	"pdf":  PDF,
	"docx": WORD,
	"doc":  WORD,
	"odt":  WORD,
	"rtf":  WORD,
	"html": HTML,
	"htm":  HTML,
	"png":  IMAGE,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"tif":  IMAGE,
	"tiff": IMAGE,
	"bmp":  IMAGE,
}

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = func() map[string]struct{} {
	m := make(map[string]struct{}, len(extFormats))
	for ext := range extFormats {
		m[ext] = struct{}{}
	}
	return m
}()

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the extractor format for an extension, or "" if unsupported.
func MapExtToFormat(ext string) string {
	return extFormats[NormalizeExt(ext)]
}

// WordMIMEType is the docconv MIME type for a word-processor extension.
func WordMIMEType(ext string) string {
	switch NormalizeExt(ext) {
	case "doc":
		return "application/msword"
	case "odt":
		return "application/vnd.oasis.opendocument.text"
	case "rtf":
		return "application/rtf"
	default:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
}
