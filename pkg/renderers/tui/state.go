package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-dealform/pkg/controller"
	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/render"
	"github.com/goliatone/go-dealform/pkg/rows"
)

// State is the terminal side of a session. It records everything the
// controller writes on the embedded page and echoes the parts a user needs
// to see: the running total, section changes and blocking alerts.
type State struct {
	*render.Page

	ctx    context.Context
	driver PromptDriver
	theme  Theme
}

var _ controller.Surface = (*State)(nil)

// NewState wraps page. Messages are printed through driver.
func NewState(ctx context.Context, page *render.Page, driver PromptDriver, theme Theme) *State {
	if page == nil {
		page = render.NewPage(model.FormSnapshot{})
	}
	return &State{Page: page, ctx: ctx, driver: driver, theme: theme}
}

func (s *State) SetTotal(value string) {
	s.Page.SetTotal(value)
	display := value
	if display == "" {
		display = "-"
	}
	s.info("Setup costs total: " + display)
}

func (s *State) SetSectionVisible(section string, visible bool) {
	before := s.Page.Visible(section)
	_, known := s.Page.Sections[section]
	s.Page.SetSectionVisible(section, visible)
	if known && before == visible {
		return
	}
	if section == model.SectionFloatingInterest {
		if visible {
			s.info("Floating interest rows enabled")
		} else {
			s.info("Floating interest rows disabled")
		}
	}
}

func (s *State) Alert(message string) {
	s.Page.Alert(message)
	for _, line := range strings.Split(message, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			_ = s.driver.Info(s.ctx, s.theme.ErrorPrefix+line)
		}
	}
}

// Watch keeps the page row identifiers in step with store and announces
// appended rows. The returned function stops watching.
func (s *State) Watch(store *rows.Store) func() {
	sync := func() {
		s.Page.SetupCostIDs = store.IDs(rows.SetupCosts)
		s.Page.InterestRateIDs = store.IDs(rows.InterestRates)
	}
	sync()
	return store.Subscribe(func(evt rows.Event) {
		sync()
		if evt.Kind != rows.EventAppended {
			return
		}
		switch evt.Collection {
		case rows.SetupCosts:
			s.info(fmt.Sprintf("Setup cost #%d added", evt.Index+1))
		case rows.InterestRates:
			s.info(fmt.Sprintf("Interest rate #%d added", evt.Index+1))
		}
	})
}

// Help joins the messages attached to field for a prompt's help text.
func (s *State) Help(field model.FieldRef) string {
	return strings.Join(s.Page.Errors.For(field), " ")
}

// Reset clears the alerts and mapped errors of a previous submission.
func (s *State) Reset() {
	s.Page.Alerts = nil
	s.Page.Errors = render.ErrorMapping{}
}

func (s *State) info(msg string) {
	_ = s.driver.Info(s.ctx, s.theme.InfoPrefix+msg)
}
