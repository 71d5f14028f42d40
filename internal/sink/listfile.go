// Package sink writes run results to disk: the activity workbook, the
// key->list text files and archived rule documents.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/rtrarchive/internal/model"
)

// ListFile rewrites a key->list text file on every write
type ListFile struct {
	path string
}

// NewListFile creates a writer for path. The parent directory is created on write.
func NewListFile(path string) *ListFile {
	return &ListFile{path: path}
}

// WriteEntries replaces the file contents with entries
func (l *ListFile) WriteEntries(entries []model.KeyedValues) (err error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", l.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", l.path, closeErr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := WriteKeyedValues(w, entries); err != nil {
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	return f.Sync()
}

// WriteKeyedValues renders entries as: key line, each value tab-indented,
// then a blank separator line
func WriteKeyedValues(w io.Writer, entries []model.KeyedValues) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\n", e.Key); err != nil {
			return err
		}
		for _, v := range e.Values {
			if _, err := fmt.Fprintf(w, "\t%s\n", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
