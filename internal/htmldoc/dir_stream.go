package htmldoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"autofill/internal/form"
)

// PageFields is the directory-mode record for one HTML file.
type PageFields struct {
	SourceFile string                 `json:"source_file"`
	Fields     []form.FieldDescriptor `json:"fields"`
}

// StreamFields writes a JSON array to w with one PageFields per .html/.htm
// file in dir, ordered by file name. Unreadable files and pages without
// interactive controls are skipped; any other extraction failure aborts.
func StreamFields(w io.Writer, dir string, opts ...Option) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if _, err := io.WriteString(w, "["); err != nil {
		return 0, fmt.Errorf("write [: %w", err)
	}

	written := 0
	for _, e := range entries {
		if e.IsDir() || !isHTML(e.Name()) {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		doc, err := Parse(f, opts...)
		f.Close()
		if err != nil {
			continue
		}

		ex, err := form.Extract(doc)
		if errors.Is(err, form.ErrNoInteractiveControls) {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("%s: %w", e.Name(), err)
		}

		if written > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return written, fmt.Errorf("write comma: %w", err)
			}
		}
		if err := enc.Encode(PageFields{SourceFile: e.Name(), Fields: ex.Fields}); err != nil {
			return written, fmt.Errorf("encode %s: %w", e.Name(), err)
		}
		written++
	}

	if _, err := io.WriteString(w, "]"); err != nil {
		return written, fmt.Errorf("write ]: %w", err)
	}
	return written, nil
}

func isHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}
