package form

// Kind is the control kind of a field, derived from the control's type
// attribute or, for textarea and select, from its tag.
type Kind string

const (
	KindText          Kind = "text"
	KindTextarea      Kind = "textarea"
	KindSelect        Kind = "select"
	KindCheckbox      Kind = "checkbox"
	KindRadio         Kind = "radio"
	KindPassword      Kind = "password"
	KindEmail         Kind = "email"
	KindTel           Kind = "tel"
	KindNumber        Kind = "number"
	KindDate          Kind = "date"
	KindDateTimeLocal Kind = "datetime-local"
	KindMonth         Kind = "month"
	KindWeek          Kind = "week"
	KindTime          Kind = "time"
	KindURL           Kind = "url"
	KindSearch        Kind = "search"
	KindColor         Kind = "color"
	KindRange         Kind = "range"
	KindFile          Kind = "file"
)

// Class groups kinds by how a value is written into them.
type Class int

const (
	// ClassText controls take the value verbatim.
	ClassText Class = iota
	// ClassSelect controls pick one of their options.
	ClassSelect
	// ClassCheckbox controls toggle their checked state.
	ClassCheckbox
	// ClassRadio controls check one member of a named group.
	ClassRadio
	// ClassFile controls cannot be written.
	ClassFile
)

// Class returns the write class of k. Kinds not listed above are text-like.
func (k Kind) Class() Class {
	switch k {
	case KindSelect:
		return ClassSelect
	case KindCheckbox:
		return ClassCheckbox
	case KindRadio:
		return ClassRadio
	case KindFile:
		return ClassFile
	default:
		return ClassText
	}
}

// inputKinds are the input type attribute values that map to their own kind.
// Anything else falls back to text, the way browsers treat unknown types.
var inputKinds = map[string]Kind{
	"text":           KindText,
	"password":       KindPassword,
	"email":          KindEmail,
	"tel":            KindTel,
	"number":         KindNumber,
	"date":           KindDate,
	"datetime-local": KindDateTimeLocal,
	"month":          KindMonth,
	"week":           KindWeek,
	"time":           KindTime,
	"url":            KindURL,
	"search":         KindSearch,
	"color":          KindColor,
	"range":          KindRange,
	"checkbox":       KindCheckbox,
	"radio":          KindRadio,
	"file":           KindFile,
}

// Option is one choice of a select or radio group.
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// FieldDescriptor is the document-independent record of one logical field.
type FieldDescriptor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        Kind     `json:"type"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder"`
	Required    bool     `json:"required"`
	Value       string   `json:"value"`
	Options     []Option `json:"options,omitempty"`

	// BoundElements holds every member of a radio group in document order.
	BoundElements []Control `json:"-"`
}

// Terms returns the non-empty candidate terms used for matching, in the
// order label, name, placeholder, id.
func (f FieldDescriptor) Terms() []string {
	out := make([]string, 0, 4)
	for _, s := range []string{f.Label, f.Name, f.Placeholder, f.ID} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Extraction is the result of one extraction pass.
type Extraction struct {
	Fields   []FieldDescriptor
	Elements *ElementMap
}

// Field returns the descriptor with the given id.
func (e Extraction) Field(id string) (FieldDescriptor, bool) {
	return FindField(e.Fields, id)
}

// FindField returns the first descriptor in fields with the given id.
func FindField(fields []FieldDescriptor, id string) (FieldDescriptor, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// ElementMap maps descriptor ids to their primary control, in registration
// order. It does not own the controls.
type ElementMap struct {
	ids  []string
	byID map[string]Control
}

// NewElementMap returns an empty ElementMap.
func NewElementMap() *ElementMap {
	return &ElementMap{byID: make(map[string]Control)}
}

// Set registers c under id. Re-registering an id replaces the control but
// keeps its original position.
func (m *ElementMap) Set(id string, c Control) {
	if _, ok := m.byID[id]; !ok {
		m.ids = append(m.ids, id)
	}
	m.byID[id] = c
}

// Get returns the control registered under id.
func (m *ElementMap) Get(id string) (Control, bool) {
	if m == nil {
		return nil, false
	}
	c, ok := m.byID[id]
	return c, ok
}

// Has reports whether id is registered.
func (m *ElementMap) Has(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// IDs returns the registered ids in order.
func (m *ElementMap) IDs() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.ids...)
}

// Len returns the number of registered controls.
func (m *ElementMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// Each calls fn for every entry in registration order.
func (m *ElementMap) Each(fn func(id string, c Control)) {
	if m == nil {
		return
	}
	for _, id := range m.ids {
		fn(id, m.byID[id])
	}
}
