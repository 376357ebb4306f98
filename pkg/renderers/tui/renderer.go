package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/controller"
	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/numeric"
	"github.com/goliatone/go-dealform/pkg/render"
	"github.com/goliatone/go-dealform/pkg/surface"
)

// Menu entries offered between edits.
const (
	menuAddSetupCost     = "Add setup cost"
	menuEditSetupCost    = "Edit setup cost"
	menuAddInterestRate  = "Add interest rate"
	menuEditInterestRate = "Edit interest rate"
	menuInterestType     = "Change interest type"
	menuEditFields       = "Edit deal fields"
	menuSubmit           = "Submit"
	menuQuit             = "Quit"
)

var menu = []string{
	menuAddSetupCost,
	menuEditSetupCost,
	menuAddInterestRate,
	menuEditInterestRate,
	menuInterestType,
	menuEditFields,
	menuSubmit,
	menuQuit,
}

// Renderer implements render.Renderer for terminal-driven sessions. Render
// walks the user through the deal form, prefilled from the page, and returns
// the accepted deal serialized in the configured format.
type Renderer struct {
	driver       PromptDriver
	out          io.Writer
	outputFormat OutputFormat
	contract     *surface.Contract
	logger       *zap.Logger
	theme        Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		logger:       zap.NewNop(),
		theme:        Theme{ErrorPrefix: "! "},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	if r.contract == nil {
		contract, err := surface.Load(context.Background())
		if err != nil {
			return nil, fmt.Errorf("tui: load contract: %w", err)
		}
		r.contract = contract
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render runs an interactive session until a submission is accepted or the
// user quits. Quitting returns ErrAborted.
func (r *Renderer) Render(ctx context.Context, page *render.Page) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}
	if page == nil {
		page = render.NewPage(model.FormSnapshot{})
	}

	state := NewState(ctx, page, r.driver, r.theme)
	snapshot := page.Snapshot.Clone()
	if snapshot.InterestType == "" {
		snapshot.InterestType = model.InterestTypeFixed
	}

	if err := r.promptFields(ctx, state, &snapshot); err != nil {
		return nil, err
	}

	ctrl := controller.New(state, controller.WithLogger(r.logger))
	defer state.Watch(ctrl.Store())()
	if _, err := ctrl.Load(snapshot); err != nil {
		return nil, fmt.Errorf("tui: load form: %w", err)
	}

	for {
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      "Next step",
			Options:      menu,
			DefaultIndex: indexOf(menu, menuSubmit),
		})
		if err != nil {
			return nil, err
		}
		if choice < 0 || choice >= len(menu) {
			continue
		}

		switch menu[choice] {
		case menuAddSetupCost:
			idx := ctrl.AddSetupCostRow()
			err = r.editSetupCost(ctx, state, ctrl, idx)
		case menuEditSetupCost:
			err = r.pickAndEditSetupCost(ctx, state, ctrl)
		case menuAddInterestRate:
			idx := ctrl.AddInterestRateRow()
			err = r.editInterestRate(ctx, state, ctrl, idx)
		case menuEditInterestRate:
			err = r.pickAndEditInterestRate(ctx, state, ctrl)
		case menuInterestType:
			err = r.promptInterestType(ctx, &snapshot)
			if err == nil {
				err = ctrl.InterestTypeChanged(snapshot.InterestType)
			}
		case menuEditFields:
			err = r.promptFields(ctx, state, &snapshot)
			if err == nil {
				err = ctrl.InterestTypeChanged(snapshot.InterestType)
			}
		case menuSubmit:
			out, accepted, submitErr := r.submit(ctx, state, ctrl, snapshot)
			if submitErr != nil {
				return nil, submitErr
			}
			if accepted {
				return out, nil
			}
		case menuQuit:
			return nil, ErrAborted
		}

		if errors.Is(err, ErrNoRows) {
			_ = r.driver.Info(ctx, r.theme.InfoPrefix+"Nothing to edit yet")
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}

// promptFields asks for every scalar input in page order, defaulting to the
// current values.
func (r *Renderer) promptFields(ctx context.Context, state *State, snapshot *model.FormSnapshot) error {
	for _, field := range r.contract.Fields {
		if field.Repeated || field.ReadOnly {
			continue
		}
		ref := model.FieldRef(field.Name)
		if ref == model.FieldInterestType {
			if err := r.promptInterestType(ctx, snapshot); err != nil {
				return err
			}
			continue
		}

		current, ok := snapshot.Value(ref)
		if !ok {
			continue
		}
		if options := model.Options(ref); len(options) > 0 {
			if err := r.promptChoice(ctx, snapshot, ref, field.Label, options, current); err != nil {
				return err
			}
			continue
		}
		response, err := r.driver.Input(ctx, InputConfig{
			Message:   field.Label,
			Default:   current,
			Help:      state.Help(ref),
			Validator: maxLength(field.MaxLength),
		})
		if err != nil {
			return err
		}
		snapshot.SetValue(ref, response)
	}
	return nil
}

// promptChoice offers the allowed values of an enumerated field. An
// out-of-range answer keeps the current value.
func (r *Renderer) promptChoice(ctx context.Context, snapshot *model.FormSnapshot, ref model.FieldRef, label string, options []string, current string) error {
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      options,
		DefaultIndex: indexOf(options, strings.ToLower(strings.TrimSpace(current))),
	})
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(options) {
		snapshot.SetValue(ref, options[idx])
	}
	return nil
}

func (r *Renderer) promptInterestType(ctx context.Context, snapshot *model.FormSnapshot) error {
	options := []string{string(model.InterestTypeFixed), string(model.InterestTypeFloating)}
	current, _ := model.ParseInterestType(string(snapshot.InterestType))
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      r.contract.Label(string(model.FieldInterestType)),
		Options:      options,
		DefaultIndex: indexOf(options, string(current)),
	})
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(options) {
		snapshot.InterestType = model.InterestType(options[idx])
	}
	return nil
}

func (r *Renderer) pickAndEditSetupCost(ctx context.Context, state *State, ctrl *controller.Controller) error {
	rows := ctrl.Store().SetupCosts()
	if len(rows) == 0 {
		return ErrNoRows
	}
	options := make([]string, len(rows))
	for i, row := range rows {
		label := fmt.Sprintf("%d. %s %s", i+1, blank(row.Amount), blank(row.Currency))
		if strings.TrimSpace(row.FXRate) != "" {
			label += " @ " + row.FXRate
		}
		if state.Invalid(model.RowField(model.FieldSetupCostAmount, i)) || state.Invalid(model.RowField(model.FieldSetupCostFX, i)) {
			label += " (invalid)"
		}
		options[i] = label
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Setup cost", Options: options})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(rows) {
		return nil
	}
	return r.editSetupCost(ctx, state, ctrl, idx)
}

func (r *Renderer) editSetupCost(ctx context.Context, state *State, ctrl *controller.Controller, idx int) error {
	rows := ctrl.Store().SetupCosts()
	if idx < 0 || idx >= len(rows) {
		return ErrNoRows
	}
	row := rows[idx]

	prompts := []struct {
		name   string
		field  model.FieldRef
		target *string
	}{
		{surface.InputSetupCostAmount, model.FieldSetupCostAmount, &row.Amount},
		{surface.InputSetupCostCurrency, model.FieldSetupCostCurrency, &row.Currency},
		{surface.InputSetupCostFX, model.FieldSetupCostFX, &row.FXRate},
	}
	for _, p := range prompts {
		field, _ := r.contract.Field(p.name)
		response, err := r.driver.Input(ctx, InputConfig{
			Message:   fmt.Sprintf("%s #%d", r.contract.Label(p.name), idx+1),
			Default:   *p.target,
			Help:      state.Help(model.RowField(p.field, idx)),
			Validator: maxLength(field.MaxLength),
		})
		if err != nil {
			return err
		}
		*p.target = response
	}
	return ctrl.SetupCostInput(idx, row)
}

func (r *Renderer) pickAndEditInterestRate(ctx context.Context, state *State, ctrl *controller.Controller) error {
	rows := ctrl.Store().InterestRates()
	if len(rows) == 0 {
		return ErrNoRows
	}
	options := make([]string, len(rows))
	for i, row := range rows {
		label := fmt.Sprintf("%d. %s %s", i+1, blank(row.Date), blank(row.Rate))
		if state.Invalid(model.RowField(model.FieldInterestRowRate, i)) || state.Invalid(model.RowField(model.FieldInterestDate, i)) {
			label += " (invalid)"
		}
		options[i] = label
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Interest rate", Options: options})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(rows) {
		return nil
	}
	return r.editInterestRate(ctx, state, ctrl, idx)
}

func (r *Renderer) editInterestRate(ctx context.Context, state *State, ctrl *controller.Controller, idx int) error {
	rows := ctrl.Store().InterestRates()
	if idx < 0 || idx >= len(rows) {
		return ErrNoRows
	}
	row := rows[idx]

	date, err := r.driver.Input(ctx, InputConfig{
		Message: fmt.Sprintf("%s #%d", r.contract.Label(surface.InputInterestDate), idx+1),
		Default: row.Date,
		Help:    state.Help(model.RowField(model.FieldInterestDate, idx)),
	})
	if err != nil {
		return err
	}
	rate, err := r.driver.Input(ctx, InputConfig{
		Message: fmt.Sprintf("%s #%d", r.contract.Label(surface.InputInterestRate), idx+1),
		Default: row.Rate,
		Help:    state.Help(model.RowField(model.FieldInterestRowRate, idx)),
	})
	if err != nil {
		return err
	}
	return ctrl.InterestRateInput(idx, model.InterestRateRow{Date: date, Rate: rate})
}

// submit validates the form. A blocked submission has already been alerted
// through the state; the session continues.
func (r *Renderer) submit(ctx context.Context, state *State, ctrl *controller.Controller, snapshot model.FormSnapshot) ([]byte, bool, error) {
	state.Reset()
	outcome := ctrl.Submit(snapshot)
	state.Errors = render.MapValidation(outcome.Result)
	if outcome.Blocked {
		return nil, false, nil
	}

	merged := ctrl.Snapshot(snapshot)
	normalized, err := deal.Normalize(merged, ctrl.Total())
	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			_ = r.driver.Info(ctx, r.theme.ErrorPrefix+line)
		}
		return nil, false, nil
	}
	state.Snapshot = merged
	state.Deal = &normalized
	r.logger.Debug("deal accepted",
		zap.String("deal_id", normalized.DealID),
		zap.Int("schedule", len(normalized.Schedule)),
	)

	out, err := r.serialize(merged, normalized)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (r *Renderer) serialize(snapshot model.FormSnapshot, d deal.Deal) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(surface.EncodeForm(snapshot, surface.ActionSubmit).Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyDeal(d)), nil
	default:
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode deal: %w", err)
		}
		return out, nil
	}
}

func prettyDeal(d deal.Deal) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%-26s %s\n", label+":", value)
	}
	line("Deal ID", d.DealID)
	line("Functional currency", d.FunctionalCurrency)
	line("Deal currency", d.DealCurrency)
	line("Exchange rate", numeric.FormatNumber(d.DealFXRate))
	line("Principal (entered)", numeric.FormatThousands(d.EnteredPrincipal))
	line("Principal", numeric.FormatThousands(d.PrincipalAmount))
	line("Setup costs", numeric.FormatThousands(d.SetupCosts))
	line("Capitalised finance costs", numeric.FormatThousands(d.CapitalisedFinanceCosts))
	line("Start date", d.StartDate)
	line("End date", d.EndDate)
	line("Interest type", string(d.InterestType))
	line("Structure", string(d.Structure))
	line("Interest frequency", string(d.InterestFrequency))
	line("Day count", string(d.DayCount))
	line("Discount", numeric.FormatThousands(d.Discount))
	line("Premium", numeric.FormatThousands(d.Premium))
	for _, point := range d.Schedule {
		line("  "+point.Date, numeric.FormatNumber(numeric.Round(point.Rate*100, 6))+"%")
	}
	return b.String()
}

func maxLength(limit int) func(string) error {
	if limit <= 0 {
		return nil
	}
	return func(value string) error {
		if len([]rune(strings.TrimSpace(value))) > limit {
			return fmt.Errorf("at most %d characters", limit)
		}
		return nil
	}
}

func blank(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
