package render

import (
	"strings"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/validation"
)

// ErrorMapping splits validation issues into field-level and form-level
// messages keyed by FieldRef.
type ErrorMapping struct {
	Fields map[model.FieldRef][]string
	Form   []string
}

// For returns the messages attached to field.
func (m ErrorMapping) For(field model.FieldRef) []string {
	return m.Fields[field]
}

// Empty reports whether no message was mapped.
func (m ErrorMapping) Empty() bool {
	return len(m.Fields) == 0 && len(m.Form) == 0
}

// MapValidation places every issue next to its field. Issues without a
// field become form-level messages. Repeated messages on the same field are
// shown once; the alert keeps the full list.
func MapValidation(results ...validation.Result) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[model.FieldRef][]string)}
	for _, result := range results {
		for _, issue := range result.Issues {
			if issue.Field == "" {
				mapping.Form = append(mapping.Form, issue.Message)
				continue
			}
			mapping.Fields[issue.Field] = append(mapping.Fields[issue.Field], issue.Message)
		}
	}

	for field, messages := range mapping.Fields {
		mapping.Fields[field] = normalizeMessages(messages)
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
