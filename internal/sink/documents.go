package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocumentDir stores archived rule documents as STTR_<identifier>_<key>.xml
type DocumentDir struct {
	dir string
}

// NewDocumentDir creates a document writer rooted at dir
func NewDocumentDir(dir string) *DocumentDir {
	return &DocumentDir{dir: dir}
}

// WriteDocument writes body and returns the path written
func (d *DocumentDir) WriteDocument(identifier, key string, body []byte) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	name := fmt.Sprintf("STTR_%s_%s.xml", sanitizeFilename(identifier), sanitizeFilename(key))
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// sanitizeFilename replaces characters that are unsafe in file names
func sanitizeFilename(s string) string {
	return filenameReplacer.Replace(s)
}
