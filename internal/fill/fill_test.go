package fill

import (
	"testing"

	"autofill/internal/form"
	"autofill/internal/htmldoc"
)

const page = `<form>
  <label for="fname">First Name</label><input id="fname" name="fname">
  <label for="pw">Password</label><input id="pw" name="pw" type="password">
  <select name="country">
    <option value="">Choose</option>
    <option value="us">United States</option>
    <option value="ca">Canada</option>
  </select>
  <input type="checkbox" name="relocate">
  <input type="checkbox" name="newsletter" checked>
  <label><input type="radio" name="remote" value="onsite"> On site</label>
  <label><input type="radio" name="remote" value="remote-ok"> Remote</label>
  <label><input type="radio" name="remote" value="remote-only"> Remote only</label>
  <input type="file" name="resume">
  <input name="CustomXYZ123">
</form>`

func setup(t *testing.T) (*htmldoc.Document, form.Extraction) {
	t.Helper()
	d, err := htmldoc.ParseString(page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ex, err := form.Extract(d)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return d, ex
}

func control(t *testing.T, d *htmldoc.Document, selector string) *htmldoc.Control {
	t.Helper()
	cs := d.Find(selector)
	if len(cs) != 1 {
		t.Fatalf("selector %q matched %d controls", selector, len(cs))
	}
	return cs[0]
}

// TestFill_SelectByOptionText verifies the canonical select example: a
// target matching option text selects that option's value.
func TestFill_SelectByOptionText(t *testing.T) {
	t.Parallel()

	d, ex := setup(t)
	n := Fill(ex.Elements, form.ValueMapOf("country", "united states"), ex.Fields)
	if n != 1 {
		t.Fatalf("want 1 filled got %d", n)
	}
	if v := control(t, d, `select[name="country"]`).Value(); v != "us" {
		t.Fatalf("select value: got %q", v)
	}
}

// TestFill_SelectNoMatch leaves the select alone and counts nothing.
func TestFill_SelectNoMatch(t *testing.T) {
	t.Parallel()

	d, ex := setup(t)
	rep := Apply(ex.Elements, form.ValueMapOf("country", "Mexico"), ex.Fields)
	if rep.Filled != 0 {
		t.Fatalf("want 0 filled got %d", rep.Filled)
	}
	if v := control(t, d, `select[name="country"]`).Value(); v != "" {
		t.Fatalf("select should keep its first option, got %q", v)
	}
	if len(d.Events()) != 0 {
		t.Fatalf("no notifications expected, got %v", d.Events())
	}
}

// TestFill_Checkbox covers bool and string truthiness, and that falsy values
// are skipped rather than unchecking.
func TestFill_Checkbox(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		value       any
		wantChecked bool
		wantFilled  int
	}{
		{name: "bool_true", value: true, wantChecked: true, wantFilled: 1},
		{name: "yes", value: "yes", wantChecked: true, wantFilled: 1},
		{name: "true_string", value: "true", wantChecked: true, wantFilled: 1},
		{name: "other_string_unchecks", value: "no", wantChecked: false, wantFilled: 1},
		{name: "case_sensitive", value: "Yes", wantChecked: false, wantFilled: 1},
		{name: "false_is_skipped", value: false, wantChecked: true, wantFilled: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d, ex := setup(t)
			n := Fill(ex.Elements, form.ValueMapOf("newsletter", tc.value), ex.Fields)
			if n != tc.wantFilled {
				t.Fatalf("filled: want %d got %d", tc.wantFilled, n)
			}
			if got := control(t, d, `input[name="newsletter"]`).Checked(); got != tc.wantChecked {
				t.Fatalf("checked: want %v got %v", tc.wantChecked, got)
			}
		})
	}
}

// TestFill_RadioFirstMatchOnly verifies only the first member whose value
// contains the target is checked.
func TestFill_RadioFirstMatchOnly(t *testing.T) {
	t.Parallel()

	d, ex := setup(t)
	if n := Fill(ex.Elements, form.ValueMapOf("remote", "REMOTE"), ex.Fields); n != 1 {
		t.Fatalf("want 1 filled got %d", n)
	}
	if !control(t, d, `input[value="remote-ok"]`).Checked() {
		t.Fatalf("first containing member should be checked")
	}
	if control(t, d, `input[value="remote-only"]`).Checked() {
		t.Fatalf("only one member may be checked")
	}

	ev := d.Events()
	if len(ev) != 2 || ev[0].Target != `input[name="remote"][value="remote-ok"]` {
		t.Fatalf("notifications should target the checked member: %#v", ev)
	}
}

// TestFill_PasswordOverride verifies every password control takes the
// generic "password" entry, matched case-insensitively, over its own id.
func TestFill_PasswordOverride(t *testing.T) {
	t.Parallel()

	d, ex := setup(t)
	values := form.ValueMapOf("pw", "by-id", "PASSWORD", "s3cret")
	rep := Apply(ex.Elements, values, ex.Fields)

	if v := control(t, d, "#pw").Value(); v != "s3cret" {
		t.Fatalf("password value: got %q", v)
	}
	for _, e := range rep.Entries {
		if e.FieldID == "pw" && (!e.Password || e.Outcome != OutcomeFilled) {
			t.Fatalf("password entry: %#v", e)
		}
	}
}

// TestFill_UnmatchedUntouched verifies controls without a value are neither
// mutated nor notified, and file inputs are never written.
func TestFill_UnmatchedUntouched(t *testing.T) {
	t.Parallel()

	d, ex := setup(t)
	values := form.ValueMapOf("fname", "Jane", "resume", "/tmp/cv.pdf", "unknown", "x")
	rep := Apply(ex.Elements, values, ex.Fields)

	if rep.Filled != 1 {
		t.Fatalf("want 1 filled got %d: %#v", rep.Filled, rep.Entries)
	}
	if v := control(t, d, `input[name="CustomXYZ123"]`).Value(); v != "" {
		t.Fatalf("unmatched control mutated: %q", v)
	}
	if _, ok := control(t, d, `input[name="resume"]`).Attr("value"); ok {
		t.Fatalf("file input must not be written")
	}

	outcomes := map[string]Outcome{}
	for _, e := range rep.Entries {
		outcomes[e.FieldID] = e.Outcome
	}
	if outcomes["fname"] != OutcomeFilled || outcomes["resume"] != OutcomeReadOnly || outcomes["CustomXYZ123"] != OutcomeNoValue {
		t.Fatalf("unexpected outcomes: %v", outcomes)
	}
	if len(rep.Entries) != ex.Elements.Len() {
		t.Fatalf("every element map entry should be reported")
	}
}

// TestFill_NotifiesInputThenChange verifies both notifications bubble, in
// order, once per mutated control.
func TestFill_NotifiesInputThenChange(t *testing.T) {
	t.Parallel()

	d, ex := setup(t)
	var seen []form.EventType
	d.ListenOn("form", func(target *htmldoc.Control, e form.Event) {
		seen = append(seen, e.Type)
	})

	Fill(ex.Elements, form.ValueMapOf("fname", "Jane"), ex.Fields)

	if len(seen) != 2 || seen[0] != form.EventInput || seen[1] != form.EventChange {
		t.Fatalf("form listener saw %v", seen)
	}
	if v := control(t, d, "#fname").Value(); v != "Jane" {
		t.Fatalf("fname: got %q", v)
	}
}

// TestFill_RadioWithoutDescriptor reports the missing group instead of
// touching anything.
func TestFill_RadioWithoutDescriptor(t *testing.T) {
	t.Parallel()

	d, ex := setup(t)
	rep := Apply(ex.Elements, form.ValueMapOf("remote", "onsite"), nil)
	if rep.Filled != 0 {
		t.Fatalf("want 0 filled got %d", rep.Filled)
	}
	if control(t, d, `input[value="onsite"]`).Checked() {
		t.Fatalf("radio should be untouched")
	}
}
