// Package facts loads the known values a form is filled from.
//
// A fact source is a flat key -> value document. Keys keep their document
// order, which decides ties during matching. Values are strings or booleans;
// numbers become their decimal text and null becomes "".
package facts

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"autofill/internal/form"
)

// DefaultFile is the fact file read when none is configured.
const DefaultFile = "constants.json"

// Format names a fact file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ErrUnknownFormat is returned for file extensions without a decoder.
var ErrUnknownFormat = errors.New("unknown fact file format")

// FormatOf maps a file extension to its Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// LoadFile reads a fact file, picking the decoder from its extension.
func LoadFile(path string) (*form.ValueMap, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}
	m, err := Decode(bytes.NewReader(b), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode reads one fact document in the given format.
func Decode(r io.Reader, format Format) (*form.ValueMap, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	case FormatCSV:
		return decodeCSV(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func decodeJSON(r io.Reader) (*form.ValueMap, error) {
	m := form.NewValueMap()
	if err := json.NewDecoder(r).Decode(m); err != nil {
		return nil, fmt.Errorf("decode json facts: %w", err)
	}
	return m, nil
}

// decodeYAML walks the node tree rather than decoding into a map so key
// order survives.
func decodeYAML(r io.Reader) (*form.ValueMap, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return form.NewValueMap(), nil
		}
		return nil, fmt.Errorf("decode yaml facts: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode yaml facts: line %d: want a mapping at the top level", root.Line)
	}

	m := form.NewValueMap()
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("decode yaml facts: line %d: %q must be a scalar", v.Line, k.Value)
		}
		switch v.Tag {
		case "!!bool":
			var b bool
			if err := v.Decode(&b); err != nil {
				return nil, fmt.Errorf("decode yaml facts: %q: %w", k.Value, err)
			}
			m.Set(k.Value, form.BoolValue(b))
		case "!!null":
			m.Set(k.Value, form.StringValue(""))
		default:
			m.Set(k.Value, form.StringValue(v.Value))
		}
	}
	return m, nil
}

// decodeCSV reads a two-column key,value table with a header row.
func decodeCSV(r io.Reader) (*form.ValueMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return form.NewValueMap(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode csv facts: %w", err)
	}
	if !strings.EqualFold(header[0], "key") || !strings.EqualFold(header[1], "value") {
		return nil, fmt.Errorf("decode csv facts: header must be key,value, got %q", strings.Join(header, ","))
	}

	m := form.NewValueMap()
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode csv facts: %w", err)
		}
		if rec[0] == "" {
			continue
		}
		m.Set(rec[0], form.StringValue(rec[1]))
	}
}

// Merge combines sources into a new map. Keys keep the position of their
// first appearance; values come from the last source that has them.
func Merge(sources ...*form.ValueMap) *form.ValueMap {
	out := form.NewValueMap()
	for _, src := range sources {
		src.Each(func(k string, v form.Value) {
			out.Set(k, v)
		})
	}
	return out
}

// WithNameParts returns a copy of m with first_name and last_name derived
// from name when they are missing. last_name needs at least two words.
func WithNameParts(m *form.ValueMap) *form.ValueMap {
	out := m.Clone()
	full, ok := m.Get("name")
	if !ok || full.IsBool() {
		return out
	}
	parts := strings.Fields(full.String())
	if len(parts) == 0 {
		return out
	}
	if _, ok := m.Get("first_name"); !ok {
		out.Set("first_name", form.StringValue(parts[0]))
	}
	if _, ok := m.Get("last_name"); !ok && len(parts) >= 2 {
		out.Set("last_name", form.StringValue(parts[len(parts)-1]))
	}
	return out
}
