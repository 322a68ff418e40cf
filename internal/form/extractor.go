package form

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrNoInteractiveControls is returned when a surface has no eligible controls.
var ErrNoInteractiveControls = errors.New("no interactive controls found")

// DefaultTriggerToken is the marker a user types into a field to ask for
// external resolution.
const DefaultTriggerToken = "##"

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and collapses every run of characters outside
// [a-z0-9] into one underscore.
func Slugify(s string) string {
	return reNonSlug.ReplaceAllString(Lower(s), "_")
}

// Extractor builds field descriptors from a Surface.
type Extractor struct {
	// newToken produces the random id suffix for controls with no name, id or
	// label. Tests replace it.
	newToken func() string
}

// NewExtractor returns an Extractor that uses random tokens for anonymous
// controls.
func NewExtractor() *Extractor {
	return &Extractor{newToken: randomToken}
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

// Extract walks every eligible control of s and returns one descriptor per
// logical field. Radio controls sharing a name fold into one descriptor.
func (e *Extractor) Extract(s Surface) (Extraction, error) {
	return e.walk(s, nil)
}

// ScanMarked is Extract restricted to controls whose trimmed value equals
// token. The marker is never copied into the descriptor's value.
func (e *Extractor) ScanMarked(s Surface, token string) (Extraction, error) {
	if token == "" {
		token = DefaultTriggerToken
	}
	return e.walk(s, func(c Control) bool {
		return strings.TrimSpace(c.Value()) == token
	})
}

// Extract runs a default Extractor over s.
func Extract(s Surface) (Extraction, error) {
	return NewExtractor().Extract(s)
}

// ScanMarked runs a default Extractor's ScanMarked over s.
func ScanMarked(s Surface, token string) (Extraction, error) {
	return NewExtractor().ScanMarked(s, token)
}

// walk is the shared traversal. When marked is non-nil only controls it
// accepts are included and their descriptor value is cleared.
func (e *Extractor) walk(s Surface, marked func(Control) bool) (Extraction, error) {
	out := Extraction{Elements: NewElementMap()}

	eligible := 0
	used := make(map[string]int)
	radios := make(map[string]int) // radio group name -> index in out.Fields

	for _, c := range s.Controls() {
		if !Eligible(c) {
			continue
		}
		eligible++

		if marked != nil && !marked(c) {
			continue
		}

		kind := KindOf(c)
		name := attr(c, AttrName)
		label := ResolveLabel(c)

		if kind == KindRadio {
			if idx, ok := radios[name]; ok {
				group := &out.Fields[idx]
				group.Options = append(group.Options, radioOption(c, label))
				group.BoundElements = append(group.BoundElements, c)
				continue
			}
		}

		f := FieldDescriptor{
			ID:          e.uniqueID(used, e.fieldID(c, label)),
			Name:        name,
			Kind:        kind,
			Label:       label,
			Placeholder: attr(c, AttrPlaceholder),
			Required:    hasAttr(c, AttrRequired),
		}

		switch kind.Class() {
		case ClassCheckbox, ClassRadio:
			// checked state lives in options, not value
		default:
			if marked == nil {
				f.Value = c.Value()
			}
		}

		switch kind {
		case KindSelect:
			f.Options = append([]Option(nil), c.Options()...)
		case KindRadio:
			f.Options = []Option{radioOption(c, label)}
			f.BoundElements = []Control{c}
			radios[name] = len(out.Fields)
		}

		out.Fields = append(out.Fields, f)
		out.Elements.Set(f.ID, c)
	}

	if eligible == 0 {
		return Extraction{}, ErrNoInteractiveControls
	}
	return out, nil
}

// fieldID applies the id policy: name, then id attribute, then the slugged
// label, then a random token.
func (e *Extractor) fieldID(c Control, label string) string {
	if name := attr(c, AttrName); name != "" {
		return name
	}
	if id := attr(c, AttrID); id != "" {
		return id
	}
	if label != "" {
		return Slugify(label)
	}
	gen := e.newToken
	if gen == nil {
		gen = randomToken
	}
	return "field_" + gen()
}

// uniqueID suffixes repeated ids with _2, _3, ... so ids stay unique within
// one pass.
func (e *Extractor) uniqueID(used map[string]int, id string) string {
	n := used[id]
	used[id] = n + 1
	if n == 0 {
		return id
	}
	for {
		n++
		candidate := id + "_" + strconv.Itoa(n)
		if used[candidate] == 0 {
			used[candidate] = 1
			used[id] = n
			return candidate
		}
	}
}

func radioOption(c Control, label string) Option {
	v := c.Value()
	text := label
	if text == "" {
		text = v
	}
	return Option{Value: v, Text: text}
}

func hasAttr(c Control, name string) bool {
	_, ok := c.Attr(name)
	return ok
}
