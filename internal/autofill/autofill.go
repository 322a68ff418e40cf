// Package autofill drives one extraction, resolution and fill cycle over a
// scan surface. It is the only layer that logs and records metrics; the
// form, match and fill packages stay pure.
package autofill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"autofill/internal/fill"
	"autofill/internal/form"
	"autofill/internal/match"
	"autofill/internal/metrics"
	"autofill/internal/resolver"
)

var (
	// ErrAllFieldsFilled means every candidate field already carries a value.
	ErrAllFieldsFilled = errors.New("all fields are already filled")
	// ErrNoMarkedFields means no control carries the trigger token.
	ErrNoMarkedFields = errors.New("no marked fields found")
)

// Flow names used for logging and the run-duration metric.
const (
	FlowFacts  = "facts"
	FlowMarked = "marked"
)

// Result describes one completed cycle.
type Result struct {
	// Fields is every descriptor the pass produced.
	Fields []form.FieldDescriptor `json:"fields"`
	// Candidates are the fields values were sought for.
	Candidates []form.FieldDescriptor `json:"-"`
	// Matches explains fact matches, facts flow only.
	Matches []match.Result `json:"matches,omitempty"`
	// Values is the map handed to the fill executor.
	Values *form.ValueMap `json:"values"`
	Report fill.Report    `json:"-"`
	Filled int            `json:"filled"`
}

// Runner holds the orchestration settings. The zero value is not usable;
// build one with New.
type Runner struct {
	extractor *form.Extractor
	matcher   *match.Matcher
	token     string
	fallback  resolver.Resolver
	negation  bool
	log       *slog.Logger
}

type Option func(*Runner)

// WithThreshold sets the fuzzy match threshold.
func WithThreshold(t float64) Option {
	return func(r *Runner) { r.matcher = match.New(t) }
}

// WithTriggerToken sets the marker the marked flow scans for.
func WithTriggerToken(token string) Option {
	return func(r *Runner) {
		if token != "" {
			r.token = token
		}
	}
}

// WithFallback asks res for eligible fields the facts left unmatched.
func WithFallback(res resolver.Resolver) Option {
	return func(r *Runner) { r.fallback = res }
}

// WithNegation flips yes/no matches for fields whose label is negated, so
// a "requires sponsorship: no" fact answers "I do not require sponsorship"
// with yes.
func WithNegation() Option {
	return func(r *Runner) { r.negation = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func WithExtractor(e *form.Extractor) Option {
	return func(r *Runner) {
		if e != nil {
			r.extractor = e
		}
	}
}

func New(opts ...Option) *Runner {
	r := &Runner{
		extractor: form.NewExtractor(),
		matcher:   match.New(match.DefaultThreshold),
		token:     form.DefaultTriggerToken,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// TriggerToken is the marker used by FillMarked.
func (r *Runner) TriggerToken() string { return r.token }

// FillFromFacts extracts every field of s, keeps the ones still needing a
// value, matches them against known and fills the matches. A password
// entry in known is forwarded so password controls receive it.
func (r *Runner) FillFromFacts(ctx context.Context, s form.Surface, known *form.ValueMap) (res Result, err error) {
	start := time.Now()
	defer func() { r.finish(FlowFacts, start, err) }()

	ex, err := r.extractor.Extract(s)
	if err != nil {
		return Result{}, err
	}
	res.Fields = ex.Fields
	metrics.RecordFields(metrics.StageCollected, len(ex.Fields))
	r.log.Info("fields collected", "flow", FlowFacts, "count", len(ex.Fields))

	res.Candidates = form.Unfilled(ex.Fields)
	metrics.RecordFields(metrics.StageEligible, len(res.Candidates))
	if len(res.Candidates) == 0 {
		return res, ErrAllFieldsFilled
	}

	if known == nil {
		known = form.NewValueMap()
	}
	res.Matches = r.matcher.Explain(res.Candidates, known)
	if r.negation {
		InvertNegated(res.Candidates, res.Matches)
	}
	values := form.NewValueMap()
	for _, m := range res.Matches {
		r.log.Debug("field matched", "field", m.FieldID, "term", m.Term, "key", m.Key, "score", m.Score, "inverted", m.Inverted)
		values.Set(m.FieldID, m.Value)
	}
	metrics.RecordFields(metrics.StageMatched, values.Len())

	if r.fallback != nil {
		if err := r.resolveRest(ctx, res.Candidates, values); err != nil {
			return res, err
		}
	}

	if k, v, ok := known.LookupFold(fill.PasswordKey); ok {
		if _, taken := values.Get(k); !taken {
			values.Set(k, v)
		}
	}

	res.Values = values
	r.apply(ex, &res)
	return res, nil
}

// InvertNegated flips yes/no match values in place for fields with a
// negated label.
func InvertNegated(fields []form.FieldDescriptor, matches []match.Result) {
	for i := range matches {
		f, ok := form.FindField(fields, matches[i].FieldID)
		if !ok || !match.Negated(f.Label) {
			continue
		}
		if v, ok := match.Invert(matches[i].Value); ok {
			matches[i].Value = v
			matches[i].Inverted = true
		}
	}
}

// resolveRest hands candidates without a value to the fallback resolver
// and merges its answers into values.
func (r *Runner) resolveRest(ctx context.Context, candidates []form.FieldDescriptor, values *form.ValueMap) error {
	var rest []form.FieldDescriptor
	for _, f := range candidates {
		if _, ok := values.Get(f.ID); !ok {
			rest = append(rest, f)
		}
	}
	if len(rest) == 0 {
		return nil
	}
	r.log.Info("resolving unmatched fields", "count", len(rest))

	got, err := r.fallback.Resolve(ctx, rest)
	if err != nil {
		return fmt.Errorf("resolve unmatched fields: %w", err)
	}
	got.Each(values.Set)
	return nil
}

// FillMarked fills only the controls whose value is the trigger token,
// with values from res.
func (r *Runner) FillMarked(ctx context.Context, s form.Surface, res resolver.Resolver) (out Result, err error) {
	start := time.Now()
	defer func() { r.finish(FlowMarked, start, err) }()

	ex, err := r.extractor.ScanMarked(s, r.token)
	if err != nil {
		return Result{}, err
	}
	out.Fields = ex.Fields
	out.Candidates = ex.Fields
	metrics.RecordFields(metrics.StageCollected, len(ex.Fields))
	r.log.Info("marked fields collected", "flow", FlowMarked, "token", r.token, "count", len(ex.Fields))
	if len(ex.Fields) == 0 {
		return out, ErrNoMarkedFields
	}
	metrics.RecordFields(metrics.StageEligible, len(ex.Fields))

	values, err := res.Resolve(ctx, ex.Fields)
	if err != nil {
		return out, fmt.Errorf("resolve marked fields: %w", err)
	}
	if values == nil {
		values = form.NewValueMap()
	}
	metrics.RecordFields(metrics.StageMatched, values.Len())

	out.Values = values
	r.apply(ex, &out)
	return out, nil
}

func (r *Runner) apply(ex form.Extraction, res *Result) {
	res.Report = fill.Apply(ex.Elements, res.Values, ex.Fields)
	res.Filled = res.Report.Filled
	for _, e := range res.Report.Entries {
		if e.Outcome == fill.OutcomeFilled {
			r.log.Debug("field filled", "field", e.FieldID, "kind", e.Kind, "password", e.Password)
		}
	}
	metrics.RecordFields(metrics.StageFilled, res.Filled)
	r.log.Info("fill complete", "filled", res.Filled, "candidates", len(res.Candidates))
}

func (r *Runner) finish(flow string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrAllFieldsFilled), errors.Is(err, ErrNoMarkedFields):
		status = "nothing_to_do"
		r.log.Info("nothing to fill", "flow", flow, "reason", err.Error())
	case err != nil:
		status = "error"
		r.log.Error("autofill failed", "flow", flow, "err", err)
	}
	metrics.RecordRun(flow, status, time.Since(start))
}

// Snapshot re-extracts s and returns id -> current value for every text,
// textarea and select field that holds a value. Checkbox, radio and file
// fields are left out.
func Snapshot(s form.Surface) (*form.ValueMap, error) {
	ex, err := form.Extract(s)
	if err != nil {
		return nil, err
	}
	out := form.NewValueMap()
	for _, f := range ex.Fields {
		switch f.Kind.Class() {
		case form.ClassCheckbox, form.ClassRadio, form.ClassFile:
			continue
		}
		if f.Value == "" {
			continue
		}
		out.Set(f.ID, form.StringValue(f.Value))
	}
	return out, nil
}
