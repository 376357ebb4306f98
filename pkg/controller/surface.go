package controller

import "github.com/goliatone/go-dealform/pkg/model"

// Surface is the rendered form the controller annotates. Implementations
// decide how markers, totals and alerts are drawn (HTML page, terminal).
type Surface interface {
	// SetTotal writes the setup-cost total: a number or an empty string.
	SetTotal(value string)
	// SetValid toggles the validity marker of a single field.
	SetValid(field model.FieldRef, valid bool)
	// SetSectionVisible shows or hides a dependent block of the page.
	SetSectionVisible(section string, visible bool)
	// Alert surfaces the aggregated messages of a blocked submission.
	Alert(message string)
}

// NopSurface discards every update.
type NopSurface struct{}

func (NopSurface) SetTotal(string) {}

func (NopSurface) SetValid(model.FieldRef, bool) {}

func (NopSurface) SetSectionVisible(string, bool) {}

func (NopSurface) Alert(string) {}

var _ Surface = NopSurface{}
