package render

import (
	"github.com/goliatone/go-dealform/pkg/controller"
	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/eir"
	"github.com/goliatone/go-dealform/pkg/model"
)

// Page is the state of one rendered deal form. It implements
// controller.Surface, so a controller run against a Page leaves behind
// everything a renderer needs to draw the result.
type Page struct {
	Snapshot model.FormSnapshot
	// SetupCostIDs and InterestRateIDs carry stable row identifiers, aligned
	// with the snapshot rows.
	SetupCostIDs    []string
	InterestRateIDs []string

	Total    string
	Markers  map[model.FieldRef]bool
	Sections map[string]bool
	Alerts   []string
	Errors   ErrorMapping

	// Deal is set once a submission was accepted and normalised.
	Deal *deal.Deal
	// Report or Comparison is set when an accepted deal was run through an
	// effective interest calculation.
	Report     *eir.Report
	Comparison *eir.Comparison
}

var _ controller.Surface = (*Page)(nil)

// NewPage returns an empty page for snapshot.
func NewPage(snapshot model.FormSnapshot) *Page {
	return &Page{
		Snapshot: snapshot,
		Markers:  make(map[model.FieldRef]bool),
		Sections: make(map[string]bool),
	}
}

func (p *Page) SetTotal(value string) {
	p.Total = value
}

func (p *Page) SetValid(field model.FieldRef, valid bool) {
	if p.Markers == nil {
		p.Markers = make(map[model.FieldRef]bool)
	}
	p.Markers[field] = valid
}

func (p *Page) SetSectionVisible(section string, visible bool) {
	if p.Sections == nil {
		p.Sections = make(map[string]bool)
	}
	p.Sections[section] = visible
}

func (p *Page) Alert(message string) {
	p.Alerts = append(p.Alerts, message)
}

// Invalid reports whether field currently carries an invalid marker.
func (p *Page) Invalid(field model.FieldRef) bool {
	valid, ok := p.Markers[field]
	return ok && !valid
}

// Visible reports whether a section is shown. Sections nobody toggled are
// visible.
func (p *Page) Visible(section string) bool {
	visible, ok := p.Sections[section]
	return !ok || visible
}

// Blocked reports whether a submission on this page was blocked.
func (p *Page) Blocked() bool {
	return len(p.Alerts) > 0
}
