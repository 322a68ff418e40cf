// Package fill writes resolved values into the controls of a scan surface.
package fill

import "autofill/internal/form"

// PasswordKey is the value-map key applied to every password control.
const PasswordKey = "password"

// Outcome is what happened to one element-map entry.
type Outcome string

const (
	OutcomeFilled    Outcome = "filled"
	OutcomeNoValue   Outcome = "no_value"
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeReadOnly  Outcome = "read_only"
	OutcomeNoMembers Outcome = "no_members"
)

// Entry records the outcome for one field id.
type Entry struct {
	FieldID string
	Kind    form.Kind
	Outcome Outcome
	// Password is set when the generic "password" entry replaced the lookup.
	Password bool
}

// Report lists the outcome of every element-map entry in order.
type Report struct {
	Entries []Entry
	Filled  int
}

// Fill applies values to the controls in elements and returns how many
// controls were mutated. Radio groups are resolved through the matching
// descriptor in fields.
func Fill(elements *form.ElementMap, values *form.ValueMap, fields []form.FieldDescriptor) int {
	return Apply(elements, values, fields).Filled
}

// Apply is Fill with a per-field report.
func Apply(elements *form.ElementMap, values *form.ValueMap, fields []form.FieldDescriptor) Report {
	var rep Report
	elements.Each(func(id string, c form.Control) {
		e := apply(id, c, values, fields)
		if e.Outcome == OutcomeFilled {
			rep.Filled++
		}
		rep.Entries = append(rep.Entries, e)
	})
	return rep
}

func apply(id string, c form.Control, values *form.ValueMap, fields []form.FieldDescriptor) Entry {
	kind := form.KindOf(c)
	e := Entry{FieldID: id, Kind: kind}

	target, _ := values.Get(id)
	if kind == form.KindPassword {
		if _, v, ok := values.LookupFold(PasswordKey); ok {
			target = v
			e.Password = true
		}
	}
	if target.Empty() {
		e.Outcome = OutcomeNoValue
		return e
	}

	var mutated form.Control
	switch kind.Class() {
	case form.ClassSelect:
		mutated = fillSelect(c, target)
		e.Outcome = OutcomeNoMatch
	case form.ClassCheckbox:
		c.SetChecked(checkboxState(target))
		mutated = c
	case form.ClassRadio:
		f, ok := form.FindField(fields, id)
		if !ok || len(f.BoundElements) == 0 {
			e.Outcome = OutcomeNoMembers
			return e
		}
		mutated = fillRadio(f.BoundElements, target)
		e.Outcome = OutcomeNoMatch
	case form.ClassText:
		c.SetValue(target.String())
		mutated = c
	case form.ClassFile:
		e.Outcome = OutcomeReadOnly
	}

	if mutated == nil {
		return e
	}
	notify(mutated)
	e.Outcome = OutcomeFilled
	return e
}

// fillSelect selects the first option whose value equals target or whose
// text contains it, ignoring case.
func fillSelect(c form.Control, target form.Value) form.Control {
	t := target.String()
	for _, o := range c.Options() {
		if o.Value == t || form.ContainsFold(o.Text, t) {
			c.SetValue(o.Value)
			return c
		}
	}
	return nil
}

// checkboxState is true for the bool true and the exact strings "true" and "yes".
func checkboxState(target form.Value) bool {
	if target.IsBool() {
		return target.True()
	}
	s := target.String()
	return s == "true" || s == "yes"
}

// fillRadio checks the first member whose value equals target or contains it,
// ignoring case. Only one member is ever checked.
func fillRadio(members []form.Control, target form.Value) form.Control {
	t := target.String()
	for _, m := range members {
		v := m.Value()
		if v == t || form.ContainsFold(v, t) {
			m.SetChecked(true)
			return m
		}
	}
	return nil
}

// notify emits the live-input and committed-change notifications, both
// bubbling, so observers of ancestors see the write.
func notify(c form.Control) {
	c.Dispatch(form.Event{Type: form.EventInput, Bubbles: true})
	c.Dispatch(form.Event{Type: form.EventChange, Bubbles: true})
}
