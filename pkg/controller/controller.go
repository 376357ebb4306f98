// Package controller wires form events to the setup-cost calculator, the
// validation engine and the section visibility rules, and writes the results
// back to a Surface.
package controller

import (
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/rows"
	"github.com/goliatone/go-dealform/pkg/setupcost"
	"github.com/goliatone/go-dealform/pkg/validation"
	"github.com/goliatone/go-dealform/pkg/visibility"
	"github.com/goliatone/go-dealform/pkg/visibility/expr"
)

// FloatingInterestRule shows the floating-rate rows only for floating deals.
const FloatingInterestRule = `interest_type == "floating"`

// Outcome reports what a submission attempt decided.
type Outcome struct {
	Blocked bool
	Result  validation.Result
}

// Controller orchestrates one form session. It is not safe for concurrent use.
type Controller struct {
	surface    Surface
	store      *rows.Store
	calculator *setupcost.Calculator
	engine     *validation.Engine
	evaluator  visibility.Evaluator
	sections   []visibility.Section
	logger     *zap.Logger

	interestType model.InterestType
	total        setupcost.Result
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore shares an existing row store, typically one a renderer already
// subscribed to.
func WithStore(store *rows.Store) Option {
	return func(c *Controller) {
		if store != nil {
			c.store = store
		}
	}
}

// WithEngine overrides the validation engine.
func WithEngine(engine *validation.Engine) Option {
	return func(c *Controller) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithEvaluator overrides the section visibility evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(c *Controller) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// WithSections replaces the dependent sections evaluated on interest type
// changes.
func WithSections(sections ...visibility.Section) Option {
	return func(c *Controller) {
		c.sections = append([]visibility.Section(nil), sections...)
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Controller writing to surface.
func New(surface Surface, opts ...Option) *Controller {
	if surface == nil {
		surface = NopSurface{}
	}
	c := &Controller{
		surface:    surface,
		store:      rows.New(),
		calculator: setupcost.New(),
		engine:     validation.New(validation.WithRules(validation.TermsRules()...)),
		evaluator:  expr.New(),
		sections: []visibility.Section{
			{Name: model.SectionFloatingInterest, Rule: FloatingInterestRule},
		},
		logger: zap.NewNop(),
		total:  setupcost.Result{Empty: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Store exposes the row collections so renderers can subscribe to them.
func (c *Controller) Store() *rows.Store {
	return c.store
}

// Total returns the most recent setup-cost calculation.
func (c *Controller) Total() setupcost.Result {
	return c.total
}

// Load draws the initial state of the form: the rows present on the page,
// the load-time setup-cost FX findings, the total and the section
// visibility. The load-time findings are returned, not alerted; they only
// mark fields.
func (c *Controller) Load(snapshot model.FormSnapshot) (validation.Result, error) {
	c.store.Load(snapshot.SetupCostRows, snapshot.InterestRateRows)

	// The functional currency available at load time is the one on the page.
	findings := c.engine.ValidateAtLoad(snapshot)
	c.applyMarkers(findings)
	if !findings.Valid() {
		c.logger.Debug("setup cost fx missing at load",
			zap.Int("issues", len(findings.Issues)),
			zap.String("functional_ccy", snapshot.FunctionalCurrency),
		)
	}

	c.recalculate(false)
	if err := c.InterestTypeChanged(snapshot.InterestType); err != nil {
		return findings, err
	}
	return findings, nil
}

// AddSetupCostRow appends an empty setup-cost row and recalculates.
func (c *Controller) AddSetupCostRow() int {
	idx := c.store.AppendSetupCost(model.SetupCostRow{})
	c.Recalculate()
	return idx
}

// AddInterestRateRow appends an empty interest-rate row.
func (c *Controller) AddInterestRateRow() int {
	return c.store.AppendInterestRate(model.InterestRateRow{})
}

// SetupCostInput records an edit of a setup-cost row and recalculates.
func (c *Controller) SetupCostInput(index int, row model.SetupCostRow) error {
	if err := c.store.UpdateSetupCost(index, row); err != nil {
		return err
	}
	c.Recalculate()
	return nil
}

// InterestRateInput records an edit of an interest-rate row.
func (c *Controller) InterestRateInput(index int, row model.InterestRateRow) error {
	return c.store.UpdateInterestRate(index, row)
}

// Recalculate recomputes the setup-cost total, writes it to the surface and
// toggles the amount marker of every row.
func (c *Controller) Recalculate() setupcost.Result {
	return c.recalculate(true)
}

// recalculate leaves rows with a blank amount unmarked unless markBlank is
// set, so a freshly drawn form does not open with flagged empty rows.
func (c *Controller) recalculate(markBlank bool) setupcost.Result {
	costs := c.store.SetupCosts()
	result := c.calculator.ComputeTotal(costs)
	c.total = result

	c.surface.SetTotal(result.Display())
	for i, valid := range result.Valid {
		if !markBlank && i < len(costs) && strings.TrimSpace(costs[i].Amount) == "" {
			continue
		}
		c.surface.SetValid(model.RowField(model.FieldSetupCostAmount, i), valid)
	}
	c.logger.Debug("setup costs recalculated",
		zap.Int("rows", len(result.Valid)),
		zap.String("total", result.Display()),
	)
	return result
}

// InterestTypeChanged re-evaluates the dependent sections for the selected
// interest type.
func (c *Controller) InterestTypeChanged(interestType model.InterestType) error {
	c.interestType = interestType
	visible, err := visibility.Resolve(c.evaluator, visibility.Context{
		Values: map[string]string{string(model.FieldInterestType): string(interestType)},
	}, c.sections...)
	if err != nil {
		return err
	}
	for _, section := range c.sections {
		if shown, ok := visible[section.Name]; ok {
			c.surface.SetSectionVisible(section.Name, shown)
		}
	}
	return nil
}

// InterestType returns the last interest type seen by the controller.
func (c *Controller) InterestType() model.InterestType {
	return c.interestType
}

// Snapshot returns base with its row collections taken from the store. The
// repeatable interest dates are the date inputs of the interest rows; dates
// in base past the last row are kept, so inputs with no row still validate.
func (c *Controller) Snapshot(base model.FormSnapshot) model.FormSnapshot {
	out := base.Clone()
	out.SetupCostRows = c.store.SetupCosts()
	out.InterestRateRows = c.store.InterestRates()
	out.InterestDates = nil
	for _, row := range out.InterestRateRows {
		out.InterestDates = append(out.InterestDates, row.Date)
	}
	if len(base.InterestDates) > len(out.InterestRateRows) {
		out.InterestDates = append(out.InterestDates, base.InterestDates[len(out.InterestRateRows):]...)
	}
	return out
}

// Submit validates the current form. The scalar fields come from snapshot,
// the rows from the store. Each call starts from an empty result; when any
// rule fails the submission is blocked and every message is alerted once,
// newline-joined.
func (c *Controller) Submit(snapshot model.FormSnapshot) Outcome {
	result := c.engine.Validate(c.Snapshot(snapshot))
	c.applyMarkers(result)

	if result.Valid() {
		return Outcome{Result: result}
	}

	c.logger.Info("submission blocked",
		zap.String("deal_id", snapshot.DealID),
		zap.Int("issues", len(result.Issues)),
	)
	c.surface.Alert(result.Joined())
	return Outcome{Blocked: true, Result: result}
}

func (c *Controller) applyMarkers(result validation.Result) {
	for _, field := range slices.Sorted(maps.Keys(result.Markers)) {
		c.surface.SetValid(field, result.Markers[field])
	}
}
