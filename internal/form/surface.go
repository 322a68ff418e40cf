package form

// Surface is the document-like container that owns the interactive controls.
// The core reads and mutates controls through it but never owns them.
type Surface interface {
	// Controls returns every form-owned input, textarea and select in
	// document order, including action and hidden inputs.
	Controls() []Control
}

// Control is one interactive element of a Surface.
type Control interface {
	// Tag is the lower-case element name: "input", "textarea" or "select".
	Tag() string
	// Attr returns the raw attribute value and whether it is present.
	Attr(name string) (string, bool)
	// Value is the control's current value. For a select it is the value of
	// the selected option.
	Value() string
	// Options lists a select's options in document order.
	Options() []Option
	// Checked reports the checked state of checkboxes and radios.
	Checked() bool

	// ExplicitLabel returns the text of a label bound to the control's id.
	ExplicitLabel() (string, bool)
	// WrappingLabel returns the text of the nearest ancestor label.
	WrappingLabel() (string, bool)
	// PreviousSiblingText returns the text of the immediately preceding
	// sibling element.
	PreviousSiblingText() (string, bool)

	// SetValue assigns the control's value. For a select it selects the
	// option with that value.
	SetValue(v string)
	// SetChecked sets the checked state.
	SetChecked(checked bool)
	// Dispatch notifies observers of the control.
	Dispatch(e Event)
}

// EventType names a change notification.
type EventType string

const (
	// EventInput represents live input.
	EventInput EventType = "input"
	// EventChange represents a committed change.
	EventChange EventType = "change"
)

// Event is a change notification dispatched on a control after a write.
type Event struct {
	Type    EventType
	Bubbles bool
}

// Attribute names read from controls.
const (
	AttrName        = "name"
	AttrID          = "id"
	AttrType        = "type"
	AttrPlaceholder = "placeholder"
	AttrAriaLabel   = "aria-label"
	AttrRequired    = "required"
)

// attr returns the attribute value or "".
func attr(c Control, name string) string {
	v, _ := c.Attr(name)
	return v
}

// KindOf derives the kind of c from its tag and type attribute.
func KindOf(c Control) Kind {
	switch c.Tag() {
	case "select":
		return KindSelect
	case "textarea":
		return KindTextarea
	}
	if k, ok := inputKinds[Lower(attr(c, AttrType))]; ok {
		return k
	}
	return KindText
}

// actionTypes are input types that carry no user data.
var actionTypes = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
	"hidden": true,
}

// Eligible reports whether c takes part in extraction. Action and hidden
// inputs are skipped.
func Eligible(c Control) bool {
	switch c.Tag() {
	case "select", "textarea":
		return true
	case "input":
		return !actionTypes[Lower(attr(c, AttrType))]
	default:
		return false
	}
}
