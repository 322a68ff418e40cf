package resolver

import (
	"context"
	"fmt"
	"strings"

	"autofill/internal/form"
)

// skipOption lets the user leave a select or radio group alone.
const skipOption = "(skip)"

// Prompter asks the user for each field, choosing the question type from the
// field kind: a list for selects and radio groups, yes/no for checkboxes,
// masked input for passwords and free text otherwise. Empty answers are left
// out of the result so the control stays untouched.
type Prompter struct {
	driver PromptDriver
}

// NewPrompter wraps driver. A nil driver asks on the terminal.
func NewPrompter(driver PromptDriver) *Prompter {
	if driver == nil {
		driver = SurveyDriver()
	}
	return &Prompter{driver: driver}
}

func (p *Prompter) Resolve(ctx context.Context, fields []form.FieldDescriptor) (*form.ValueMap, error) {
	out := form.NewValueMap()
	for _, f := range fields {
		v, ok, err := p.ask(ctx, f)
		if err != nil {
			return out, fmt.Errorf("field %s: %w", f.ID, err)
		}
		if ok {
			out.Set(f.ID, v)
		}
	}
	return out, nil
}

func (p *Prompter) ask(ctx context.Context, f form.FieldDescriptor) (form.Value, bool, error) {
	msg := question(f)
	help := fmt.Sprintf("field %s (%s)", f.ID, f.Kind)

	switch f.Kind.Class() {
	case form.ClassSelect, form.ClassRadio:
		if len(f.Options) == 0 {
			return form.Value{}, false, nil
		}
		labels := make([]string, 0, len(f.Options)+1)
		def := 0
		for i, o := range f.Options {
			labels = append(labels, optionLabel(o))
			if f.Value != "" && o.Value == f.Value {
				def = i
			}
		}
		labels = append(labels, skipOption)
		idx, err := p.driver.Select(ctx, msg, help, labels, def)
		if err != nil || idx < 0 || idx >= len(f.Options) {
			return form.Value{}, false, err
		}
		return form.StringValue(f.Options[idx].Value), true, nil

	case form.ClassCheckbox:
		yes, err := p.driver.Confirm(ctx, msg, help, false)
		if err != nil {
			return form.Value{}, false, err
		}
		return form.BoolValue(yes), yes, nil

	case form.ClassFile:
		return form.Value{}, false, nil
	}

	var (
		s   string
		err error
	)
	switch f.Kind {
	case form.KindPassword:
		s, err = p.driver.Password(ctx, msg, help)
	case form.KindTextarea:
		s, err = p.driver.Multiline(ctx, msg, help, "")
	default:
		s, err = p.driver.Input(ctx, msg, help, "")
	}
	if err != nil || strings.TrimSpace(s) == "" {
		return form.Value{}, false, err
	}
	return form.StringValue(s), true, nil
}

func question(f form.FieldDescriptor) string {
	q := f.Label
	if q == "" {
		q = f.ID
	}
	if f.Required {
		q += " *"
	}
	return q
}

func optionLabel(o form.Option) string {
	if o.Text != "" && o.Text != o.Value {
		return o.Text
	}
	return o.Value
}
