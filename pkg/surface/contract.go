// Package surface describes the page contract of the deal form: the input
// names the controller reads and writes, their labels and which ones are
// required. The contract ships as an embedded OpenAPI document.
package surface

import (
	"cmp"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// DefaultOperation is the form submission operation the fields are read
// from.
const DefaultOperation = "submitCalculation"

const (
	labelExtension = "x-dealform-label"
	orderExtension = "x-dealform-order"
)

// Document returns a copy of the embedded OpenAPI document.
func Document() []byte {
	return slices.Clone(document)
}

// Field is one input of the form body.
type Field struct {
	Name      string
	Label     string
	Type      string
	Pattern   string
	MaxLength int
	Enum      []string
	Repeated  bool
	Required  bool
	ReadOnly  bool
}

// Contract is the resolved form body of one operation.
type Contract struct {
	Operation string
	Method    string
	Path      string
	Fields    []Field

	index map[string]int
}

// Field looks up a field by input name.
func (c *Contract) Field(name string) (Field, bool) {
	if c == nil {
		return Field{}, false
	}
	idx, ok := c.index[name]
	if !ok {
		return Field{}, false
	}
	return c.Fields[idx], true
}

// Label returns the display label of name, falling back to the name itself.
func (c *Contract) Label(name string) string {
	if field, ok := c.Field(name); ok && field.Label != "" {
		return field.Label
	}
	return name
}

// Required lists the required input names in page order.
func (c *Contract) Required() []string {
	var out []string
	for _, field := range c.Fields {
		if field.Required {
			out = append(out, field.Name)
		}
	}
	return out
}

type loadOptions struct {
	raw       []byte
	operation string
}

// Option configures Load.
type Option func(*loadOptions)

// WithDocument loads raw instead of the embedded document.
func WithDocument(raw []byte) Option {
	return func(o *loadOptions) {
		if len(raw) > 0 {
			o.raw = raw
		}
	}
}

// WithOperation selects the operation whose request body describes the form.
func WithOperation(id string) Option {
	return func(o *loadOptions) {
		if id = strings.TrimSpace(id); id != "" {
			o.operation = id
		}
	}
}

// Load parses and validates the OpenAPI document and resolves the form
// fields of the selected operation.
func Load(ctx context.Context, opts ...Option) (*Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := loadOptions{raw: document, operation: DefaultOperation}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(cfg.raw)
	if err != nil {
		return nil, fmt.Errorf("surface: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("surface: validate: %w", err)
	}

	contract, err := resolve(spec, cfg.operation)
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func resolve(spec *openapi3.T, operationID string) (*Contract, error) {
	if spec.Paths == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingOperation, operationID)
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.OperationID != operationID {
				continue
			}
			schema, err := formSchema(op)
			if err != nil {
				return nil, fmt.Errorf("surface: %s: %w", operationID, err)
			}
			contract := &Contract{
				Operation: operationID,
				Method:    method,
				Path:      path,
				Fields:    collectFields(schema),
			}
			contract.index = make(map[string]int, len(contract.Fields))
			for i, field := range contract.Fields {
				contract.index[field.Name] = i
			}
			return contract, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingOperation, operationID)
}

func formSchema(op *openapi3.Operation) (*openapi3.Schema, error) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, errors.New("operation has no request body")
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range []string{"application/x-www-form-urlencoded", "multipart/form-data", "application/json"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value, nil
		}
	}
	return nil, errors.New("request body has no form schema")
}

type orderedField struct {
	Field
	order int
}

func collectFields(schema *openapi3.Schema) []Field {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	ordered := make([]orderedField, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		label, _ := prop.Extensions[labelExtension].(string)
		if label == "" {
			// Only labelled inputs are part of the page; the action selector
			// is not.
			continue
		}
		field := Field{
			Name:     name,
			Label:    label,
			Type:     firstType(prop.Type),
			Pattern:  prop.Pattern,
			Required: required[name],
			ReadOnly: prop.ReadOnly,
		}
		if prop.MaxLength != nil {
			field.MaxLength = int(*prop.MaxLength)
		}
		for _, value := range prop.Enum {
			if s, ok := value.(string); ok {
				field.Enum = append(field.Enum, s)
			}
		}
		if field.Type == openapi3.TypeArray {
			field.Repeated = true
			if prop.Items != nil && prop.Items.Value != nil {
				field.Type = firstType(prop.Items.Value.Type)
				if prop.Items.Value.MaxLength != nil {
					field.MaxLength = int(*prop.Items.Value.MaxLength)
				}
			}
		}
		ordered = append(ordered, orderedField{Field: field, order: orderOf(prop.Extensions[orderExtension])})
	}

	slices.SortFunc(ordered, func(a, b orderedField) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	out := make([]Field, len(ordered))
	for i, field := range ordered {
		out[i] = field.Field
	}
	return out
}

func firstType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// orderOf reads the numeric order extension; extension values decode as
// JSON numbers.
func orderOf(raw any) int {
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 1 << 30
	}
}
