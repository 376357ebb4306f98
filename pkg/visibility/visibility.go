package visibility

import (
	"fmt"
	"strings"
)

// Evaluator determines whether a form section should be shown based on a rule
// string and the current form values.
type Evaluator interface {
	Eval(section, rule string, ctx Context) (bool, error)
}

// Context carries the form values a rule can reference, keyed by input name.
type Context struct {
	Values map[string]string
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(section, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(section, rule string, ctx Context) (bool, error) {
	return fn(section, rule, ctx)
}

// Section pairs a named page block with the rule that shows it. An empty rule
// means always visible.
type Section struct {
	Name string
	Rule string
}

// Resolve evaluates every section and returns its visibility keyed by name.
func Resolve(evaluator Evaluator, ctx Context, sections ...Section) (map[string]bool, error) {
	out := make(map[string]bool, len(sections))
	for _, section := range sections {
		name := strings.TrimSpace(section.Name)
		if name == "" {
			continue
		}
		if strings.TrimSpace(section.Rule) == "" || evaluator == nil {
			out[name] = true
			continue
		}
		ok, err := evaluator.Eval(name, section.Rule, ctx)
		if err != nil {
			return nil, fmt.Errorf("visibility: section %q: %w", name, err)
		}
		out[name] = ok
	}
	return out, nil
}
