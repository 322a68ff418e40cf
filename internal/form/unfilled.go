package form

import "strings"

// Unfilled returns the fields that still need a value: those whose value is
// blank, plus every checkbox and radio regardless of checked state.
func Unfilled(fields []FieldDescriptor) []FieldDescriptor {
	var out []FieldDescriptor
	for _, f := range fields {
		switch f.Kind.Class() {
		case ClassCheckbox, ClassRadio:
			out = append(out, f)
		default:
			if strings.TrimSpace(f.Value) == "" {
				out = append(out, f)
			}
		}
	}
	return out
}

// AllFilled reports whether no field needs a value.
func AllFilled(fields []FieldDescriptor) bool {
	return len(Unfilled(fields)) == 0
}
