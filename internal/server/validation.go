// validation.go - upload filename checks.
package server

import (
	"strings"
)

// Only office document formats are accepted for upload.
var allowedExtensions = map[string]bool{
	"pptx": true,
	"docx": true,
	"xlsx": true,
}

// fileExtension returns the lowercased extension of filename without the
// dot, or "" when there is none.
func fileExtension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

func isAllowedFile(filename string) bool {
	return allowedExtensions[fileExtension(filename)]
}

// sanitizeFilename strips path components and control characters from a
// client-supplied name so it is safe to echo in headers and listings.
func sanitizeFilename(name string) string {
	// Drop any directory part, whichever separator the client used.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f || r == '"' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
