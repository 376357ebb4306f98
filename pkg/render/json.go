package render

import (
	"context"
	"encoding/json"
	"maps"
	"slices"

	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/eir"
	"github.com/goliatone/go-dealform/pkg/model"
)

// JSONRenderer serialises the page state for script clients.
type JSONRenderer struct{}

var _ Renderer = JSONRenderer{}

func (JSONRenderer) Name() string { return "json" }

func (JSONRenderer) ContentType() string { return "application/json; charset=utf-8" }

type jsonPage struct {
	Snapshot model.FormSnapshot  `json:"snapshot"`
	Total    string              `json:"total"`
	Invalid  []string            `json:"invalid,omitempty"`
	Sections map[string]bool     `json:"sections,omitempty"`
	Blocked  bool                `json:"blocked"`
	Messages []string            `json:"messages,omitempty"`
	Fields   map[string][]string `json:"fields,omitempty"`
	Deal     *deal.Deal          `json:"deal,omitempty"`

	Report     *eir.Report     `json:"report,omitempty"`
	Comparison *eir.Comparison `json:"comparison,omitempty"`
}

// Render writes the page as an indented JSON document.
func (JSONRenderer) Render(ctx context.Context, page *Page) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page == nil {
		page = NewPage(model.FormSnapshot{})
	}

	out := jsonPage{
		Snapshot: page.Snapshot,
		Total:    page.Total,
		Sections: page.Sections,
		Blocked:  page.Blocked(),
		Messages: page.Errors.Form,
		Deal:     page.Deal,

		Report:     page.Report,
		Comparison: page.Comparison,
	}
	for _, field := range slices.Sorted(maps.Keys(page.Markers)) {
		if !page.Markers[field] {
			out.Invalid = append(out.Invalid, string(field))
		}
	}
	if len(page.Errors.Fields) > 0 {
		out.Fields = make(map[string][]string, len(page.Errors.Fields))
		for field, messages := range page.Errors.Fields {
			out.Fields[string(field)] = messages
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
