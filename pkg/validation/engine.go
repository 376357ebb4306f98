// Package validation runs the cross-field business rules of the deal form.
// Every rule always runs; violations are appended in rule order and never
// de-duplicated, so a single call reports everything the user must fix.
package validation

import (
	"strings"

	"github.com/goliatone/go-dealform/pkg/model"
)

// Issue is a single rule violation with an optional field reference.
type Issue struct {
	Field   model.FieldRef `json:"field,omitempty"`
	Message string         `json:"message"`
}

// Result collects the issues and validity markers produced by one call. It is
// never shared between calls.
type Result struct {
	Issues []Issue `json:"issues,omitempty"`
	// Markers holds the validity flag each rule set, keyed by field. true
	// clears a previous invalid marker.
	Markers map[model.FieldRef]bool `json:"markers,omitempty"`
}

// Valid reports whether no rule was violated.
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// Messages returns the issue messages in rule order.
func (r Result) Messages() []string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Message
	}
	return out
}

// Joined returns the messages newline-joined for a single alert.
func (r Result) Joined() string {
	return strings.Join(r.Messages(), "\n")
}

// Invalid reports whether a rule flagged field.
func (r Result) Invalid(field model.FieldRef) bool {
	valid, ok := r.Markers[field]
	return ok && !valid
}

// Add appends an issue without touching the field's marker.
func (r *Result) Add(field model.FieldRef, message string) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: message})
}

// Mark records the validity of field.
func (r *Result) Mark(field model.FieldRef, valid bool) {
	if field == "" {
		return
	}
	if r.Markers == nil {
		r.Markers = make(map[model.FieldRef]bool)
	}
	r.Markers[field] = valid
}

// Fail appends an issue and marks field invalid.
func (r *Result) Fail(field model.FieldRef, message string) {
	r.Add(field, message)
	r.Mark(field, false)
}

// Merge appends other's issues and markers after r's own.
func (r *Result) Merge(other Result) {
	r.Issues = append(r.Issues, other.Issues...)
	for field, valid := range other.Markers {
		r.Mark(field, valid)
	}
}

// Rule inspects a snapshot and records violations on the result.
type Rule struct {
	Name  string
	Check func(model.FormSnapshot, *Result)
}

// Engine evaluates an ordered rule set.
type Engine struct {
	rules     []Rule
	loadRules []Rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules appends extra submit-time rules after the built-in ones.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		for _, rule := range rules {
			if rule.Check != nil {
				e.rules = append(e.rules, rule)
			}
		}
	}
}

// New constructs an Engine with the built-in deal form rules.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:     DefaultRules(),
		loadRules: LoadRules(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Validate runs every submit-time rule against snapshot.
func (e *Engine) Validate(snapshot model.FormSnapshot) Result {
	return run(e.rules, snapshot)
}

// ValidateAtLoad runs the page-load rules, which only inspect the setup-cost
// rows present when the form is first drawn.
func (e *Engine) ValidateAtLoad(snapshot model.FormSnapshot) Result {
	return run(e.loadRules, snapshot)
}

func run(rules []Rule, snapshot model.FormSnapshot) Result {
	var result Result
	for _, rule := range rules {
		rule.Check(snapshot, &result)
	}
	return result
}
