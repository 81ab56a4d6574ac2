package scanner

import (
	"path/filepath"
	"strings"
)

// FileClass is the detected kind of a filesystem entry.
type FileClass int

const (
	ClassIgnored FileClass = iota
	ClassVideo
	ClassDocument
)

func (c FileClass) String() string {
	switch c {
	case ClassVideo:
		return "video"
	case ClassDocument:
		return "document"
	default:
		return "ignored"
	}
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mkv": {}, ".mov": {},
	".wmv": {}, ".flv": {}, ".webm": {}, ".m4v": {},
}

var documentExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".txt": {}, ".ppt": {},
	".pptx": {}, ".xls": {}, ".xlsx": {}, ".zip": {}, ".rar": {},
}

// Classify maps a filename to its class by extension, case-insensitively.
// Unknown extensions are ignored. Total function, no error path.
func Classify(filename string) FileClass {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := videoExtensions[ext]; ok {
		return ClassVideo
	}
	if _, ok := documentExtensions[ext]; ok {
		return ClassDocument
	}
	return ClassIgnored
}
