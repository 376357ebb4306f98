package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/eir"
	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/numeric"
	"github.com/goliatone/go-dealform/pkg/render"
	rendertemplate "github.com/goliatone/go-dealform/pkg/render/template"
	gotemplate "github.com/goliatone/go-dealform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-dealform/pkg/surface"
	"github.com/goliatone/go-dealform/pkg/theme"
)

const (
	defaultTitle         = "Deal calculation"
	defaultAction        = "/calculation"
	defaultTotalEndpoint = "/api/setup-costs/total"
	defaultPageTemplate  = "calculation.tpl"
	defaultSummary       = "summary.tpl"
	defaultReport        = "report.tpl"
	defaultComparison    = "comparison.tpl"
	defaultDownload      = "/download"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	templateRenderer rendertemplate.TemplateRenderer
	contract         *surface.Contract
	theme            *gotheme.RendererConfig
	title            string
	action           string
	totalEndpoint    string
	downloadPath     string
	scriptURL        string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk. Templates found
// there shadow the bundled ones of the same name.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithContract sets the page contract the labels and field order come from.
// The embedded contract is loaded when none is given.
func WithContract(contract *surface.Contract) Option {
	return func(cfg *config) {
		cfg.contract = contract
	}
}

// WithTheme applies a resolved theme: stylesheet, CSS variables and
// template partials.
func WithTheme(theme *gotheme.RendererConfig) Option {
	return func(cfg *config) {
		cfg.theme = theme
	}
}

func WithTitle(title string) Option {
	return func(cfg *config) {
		if title = strings.TrimSpace(title); title != "" {
			cfg.title = title
		}
	}
}

// WithAction sets the path the form posts to.
func WithAction(path string) Option {
	return func(cfg *config) {
		if path = strings.TrimSpace(path); path != "" {
			cfg.action = path
		}
	}
}

// WithTotalEndpoint sets the JSON endpoint the runtime script recalculates
// the setup-cost total against.
func WithTotalEndpoint(path string) Option {
	return func(cfg *config) {
		if path = strings.TrimSpace(path); path != "" {
			cfg.totalEndpoint = path
		}
	}
}

// WithDownloadPath sets the path prefix schedule downloads post to. The table
// kind is appended as the last segment.
func WithDownloadPath(path string) Option {
	return func(cfg *config) {
		if path = strings.TrimSpace(path); path != "" {
			cfg.downloadPath = strings.TrimSuffix(path, "/")
		}
	}
}

// WithScriptURL includes the runtime script. Pages work without it; every
// button then posts back to the server.
func WithScriptURL(url string) Option {
	return func(cfg *config) {
		cfg.scriptURL = strings.TrimSpace(url)
	}
}

// Renderer draws a render.Page as a server-rendered HTML form, or as the
// deal summary once the page carries an accepted deal.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	contract  *surface.Contract
	theme     *gotheme.RendererConfig
	title     string
	action    string
	endpoint  string
	download  string
	script    string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:    TemplatesFS(),
		title:         defaultTitle,
		action:        defaultAction,
		totalEndpoint: defaultTotalEndpoint,
		downloadPath:  defaultDownload,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithBaseDir(cfg.templateDir),
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	contract := cfg.contract
	if contract == nil {
		loaded, err := surface.Load(context.Background())
		if err != nil {
			return nil, fmt.Errorf("html renderer: load contract: %w", err)
		}
		contract = loaded
	}

	return &Renderer{
		templates: renderer,
		contract:  contract,
		theme:     cfg.theme,
		title:     cfg.title,
		action:    cfg.action,
		endpoint:  cfg.totalEndpoint,
		download:  cfg.downloadPath,
		script:    cfg.scriptURL,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(ctx context.Context, page *render.Page) ([]byte, error) {
	if r.templates == nil {
		return nil, errors.New("html renderer: template renderer is nil")
	}
	if page == nil {
		return nil, errors.New("html renderer: page is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := r.partial(theme.PartialPage, defaultPageTemplate)
	view := r.pageView(page)
	switch {
	case page.Comparison != nil:
		name = r.partial(theme.PartialComparison, defaultComparison)
		view.Comparison = compareView(*page.Comparison)
		view.Downloads = r.downloads(page.Snapshot, surface.ActionComparison, eir.KindComparison, eir.KindSummary)
	case page.Report != nil:
		name = r.partial(theme.PartialReport, defaultReport)
		view.Report = reportView(*page.Report)
		action := surface.ActionSimpleEIR
		if page.Report.Method == eir.MethodComplex {
			action = surface.ActionComplexEIR
		}
		view.Downloads = r.downloads(page.Snapshot, action, eir.KindReport)
	case page.Deal != nil:
		name = r.partial(theme.PartialSummary, defaultSummary)
		view.Deal = summarize(*page.Deal)
	}

	result, err := r.templates.RenderTemplate(name, view)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) partial(key, fallback string) string {
	if r.theme != nil {
		if name := strings.TrimSpace(r.theme.Partials[key]); name != "" {
			return name
		}
	}
	return fallback
}

// View data holds strings and booleans only; the template engine sees it
// through its JSON form.

type pageView struct {
	Title           string           `json:"title"`
	Theme           string           `json:"theme"`
	Variant         string           `json:"variant"`
	Stylesheet      string           `json:"stylesheet"`
	CSSVars         string           `json:"css_vars"`
	Script          string           `json:"script"`
	Action          string           `json:"action"`
	TotalEndpoint   string           `json:"total_endpoint"`
	AlertLines      []string         `json:"alert_lines"`
	FormErrors      []string         `json:"form_errors"`
	Fields          []inputView      `json:"fields"`
	InterestType    interestTypeView `json:"interest_type"`
	SetupRows       []setupRowView   `json:"setup_rows"`
	Total           inputView        `json:"total"`
	FloatingSection string           `json:"floating_section"`
	FloatingVisible bool             `json:"floating_visible"`
	InterestRows    []rateRowView    `json:"interest_rows"`
	Deal            *dealView        `json:"deal,omitempty"`
	Report          *scheduleView    `json:"report,omitempty"`
	Comparison      *comparisonView  `json:"comparison,omitempty"`
	Downloads       []downloadView   `json:"downloads,omitempty"`
}

type inputView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Value     string   `json:"value"`
	MaxLength string   `json:"max_length,omitempty"`
	Required  bool     `json:"required"`
	Invalid   bool         `json:"invalid"`
	Messages  []string     `json:"messages"`
	Options   []optionView `json:"options,omitempty"`
}

type optionView struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

type interestTypeView struct {
	Label   string       `json:"label"`
	Options []optionView `json:"options"`
}

type setupRowView struct {
	ID       string    `json:"id"`
	Amount   inputView `json:"amount"`
	Currency inputView `json:"currency"`
	FX       inputView `json:"fx"`
}

type rateRowView struct {
	ID   string    `json:"id"`
	Date inputView `json:"date"`
	Rate inputView `json:"rate"`
}

type pointView struct {
	Date string `json:"date"`
	Rate string `json:"rate"`
}

type dealView struct {
	DealID                  string      `json:"deal_id"`
	FunctionalCurrency      string      `json:"functional_ccy"`
	DealCurrency            string      `json:"deal_ccy"`
	DealFXRate              string      `json:"deal_fx_rate"`
	EnteredPrincipal        string      `json:"entered_principal"`
	PrincipalAmount         string      `json:"principal_amount"`
	SetupCosts              string      `json:"setup_costs"`
	CapitalisedFinanceCosts string      `json:"capitalised_finance_costs"`
	StartDate               string      `json:"start_date"`
	EndDate                 string      `json:"end_date"`
	InterestType            string      `json:"interest_type"`
	Structure               string      `json:"structure"`
	InterestFrequency       string      `json:"interest_freq"`
	DayCount                string      `json:"daycount"`
	Discount                string      `json:"discount"`
	Premium                 string      `json:"premium"`
	Schedule                []pointView `json:"schedule"`
	CashFlowDates           []string    `json:"cash_flow_dates"`
}

type scheduleView struct {
	Method string    `json:"method"`
	DealID string    `json:"deal_id"`
	Rows   []rowView `json:"rows"`
}

type rowView struct {
	Date              string `json:"date"`
	Currency          string `json:"currency"`
	Principal         string `json:"principal"`
	NominalRate       string `json:"nominal_rate"`
	NominalInterest   string `json:"nominal_interest"`
	TotalCashFlow     string `json:"total_cash_flow"`
	Capitalised       string `json:"capitalised"`
	AmortizedCost     string `json:"amortized_cost"`
	EffectiveInterest string `json:"effective_interest"`
	Amortization      string `json:"amortization"`
	EffectiveRate     string `json:"effective_rate"`
}

type comparisonView struct {
	DealID      string           `json:"deal_id"`
	Periods     []differenceView `json:"periods"`
	Summary     []differenceView `json:"summary"`
	ComplexTime string           `json:"complex_time"`
	SimpleTime  string           `json:"simple_time"`
	Efficiency  string           `json:"efficiency"`
}

type differenceView struct {
	Label           string `json:"label"`
	Principal       string `json:"principal"`
	NominalRate     string `json:"nominal_rate"`
	ComplexInterest string `json:"complex_interest"`
	SimpleInterest  string `json:"simple_interest"`
	ComplexRate     string `json:"complex_rate"`
	SimpleRate      string `json:"simple_rate"`
	InterestDiff    string `json:"interest_diff"`
	RelativeDiff    string `json:"relative_diff"`
	RateDiff        string `json:"rate_diff"`
}

type hiddenView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type downloadView struct {
	Action  string       `json:"action"`
	Label   string       `json:"label"`
	Fields  []hiddenView `json:"fields"`
	Formats []optionView `json:"formats"`
}

func (r *Renderer) pageView(page *render.Page) pageView {
	snapshot := page.Snapshot
	view := pageView{
		Title:           r.title,
		Action:          r.action,
		TotalEndpoint:   r.endpoint,
		Script:          r.script,
		AlertLines:      alertLines(page.Alerts),
		FormErrors:      page.Errors.Form,
		FloatingSection: model.SectionFloatingInterest,
		FloatingVisible: page.Visible(model.SectionFloatingInterest),
	}
	if r.theme != nil {
		view.Theme = r.theme.Theme
		view.Variant = r.theme.Variant
		view.CSSVars = theme.CSSVarsStyle(r.theme)
		if r.theme.AssetURL != nil {
			view.Stylesheet = r.theme.AssetURL(theme.AssetStylesheet)
		}
	}

	for _, field := range r.contract.Fields {
		if field.Repeated || field.ReadOnly || field.Name == string(model.FieldInterestType) {
			continue
		}
		ref := model.FieldRef(field.Name)
		value, _ := snapshot.Value(ref)
		input := r.input(page, ref, field.Name, field.Name, value)
		input.Required = field.Required
		input.Options = selectOptions(ref, field.Enum, value)
		if field.MaxLength > 0 {
			input.MaxLength = fmt.Sprint(field.MaxLength)
		}
		view.Fields = append(view.Fields, input)
	}

	view.InterestType = interestTypeView{Label: r.contract.Label(string(model.FieldInterestType))}
	current, _ := model.ParseInterestType(string(snapshot.InterestType))
	if current == "" {
		current = model.InterestTypeFixed
	}
	for _, option := range []model.InterestType{model.InterestTypeFixed, model.InterestTypeFloating} {
		view.InterestType.Options = append(view.InterestType.Options, optionView{
			Value:   string(option),
			Label:   titleCase(string(option)),
			Checked: option == current,
		})
	}

	view.Total = inputView{
		ID:    string(model.FieldSetupCostsTotal),
		Name:  string(model.FieldSetupCostsTotal),
		Label: r.contract.Label(string(model.FieldSetupCostsTotal)),
		Value: page.Total,
	}

	for i, row := range snapshot.SetupCostRows {
		view.SetupRows = append(view.SetupRows, setupRowView{
			ID:       rowID(page.SetupCostIDs, i),
			Amount:   r.input(page, model.RowField(model.FieldSetupCostAmount, i), surface.InputSetupCostAmount, surface.InputSetupCostAmount, row.Amount),
			Currency: r.input(page, model.RowField(model.FieldSetupCostCurrency, i), surface.InputSetupCostCurrency, surface.InputSetupCostCurrency, row.Currency),
			FX:       r.input(page, model.RowField(model.FieldSetupCostFX, i), surface.InputSetupCostFX, surface.InputSetupCostFX, row.FXRate),
		})
	}

	for i, row := range snapshot.InterestRateRows {
		view.InterestRows = append(view.InterestRows, rateRowView{
			ID:   rowID(page.InterestRateIDs, i),
			Date: r.input(page, model.RowField(model.FieldInterestDate, i), "interest_date", surface.InputInterestDate, row.Date),
			Rate: r.input(page, model.RowField(model.FieldInterestRowRate, i), "interest_rate_row", surface.InputInterestRate, row.Rate),
		})
	}
	return view
}

// input builds one input. Row-scoped refs get an index suffix on their id
// so labels stay attached to the right row.
func (r *Renderer) input(page *render.Page, ref model.FieldRef, idBase, name, value string) inputView {
	id := idBase
	if _, row := ref.Split(); row >= 0 {
		id = fmt.Sprintf("%s_%d", idBase, row)
	}
	return inputView{
		ID:       id,
		Name:     name,
		Label:    r.contract.Label(name),
		Value:    value,
		Invalid:  page.Invalid(ref),
		Messages: page.Errors.For(ref),
	}
}

// selectOptions lists the choices of an enumerated field with the current
// value selected, nil for free-text fields.
func selectOptions(ref model.FieldRef, enum []string, current string) []optionView {
	values := model.Options(ref)
	if len(values) == 0 {
		values = enum
	}
	if len(values) == 0 {
		return nil
	}
	current = strings.ToLower(strings.TrimSpace(current))
	out := make([]optionView, 0, len(values))
	for _, value := range values {
		out = append(out, optionView{
			Value:   value,
			Label:   optionLabel(value),
			Checked: value == current,
		})
	}
	return out
}

func optionLabel(value string) string {
	words := strings.Split(value, "_")
	for i, word := range words {
		words[i] = titleCase(word)
	}
	return strings.Join(words, " ")
}

func rowID(ids []string, i int) string {
	if i < len(ids) && ids[i] != "" {
		return ids[i]
	}
	return fmt.Sprintf("row-%d", i)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func summarize(d deal.Deal) *dealView {
	view := &dealView{
		DealID:                  d.DealID,
		FunctionalCurrency:      d.FunctionalCurrency,
		DealCurrency:            d.DealCurrency,
		DealFXRate:              numeric.FormatNumber(d.DealFXRate),
		EnteredPrincipal:        numeric.FormatNumber(d.EnteredPrincipal),
		PrincipalAmount:         numeric.FormatNumber(d.PrincipalAmount),
		SetupCosts:              numeric.FormatNumber(d.SetupCosts),
		CapitalisedFinanceCosts: numeric.FormatNumber(d.CapitalisedFinanceCosts),
		StartDate:               d.StartDate,
		EndDate:                 d.EndDate,
		InterestType:            titleCase(string(d.InterestType)),
		Structure:               optionLabel(string(d.Structure)),
		InterestFrequency:       optionLabel(string(d.InterestFrequency)),
		DayCount:                optionLabel(string(d.DayCount)),
		Discount:                numeric.FormatNumber(d.Discount),
		Premium:                 numeric.FormatNumber(d.Premium),
		CashFlowDates:           d.CashFlowDates,
	}
	for _, point := range d.Schedule {
		view.Schedule = append(view.Schedule, pointView{
			Date: point.Date,
			Rate: numeric.FormatNumber(numeric.Round(point.Rate*100, 6)) + "%",
		})
	}
	return view
}

// downloads builds one form per table. Each form re-posts the snapshot so
// the server can rebuild the schedule without keeping state.
func (r *Renderer) downloads(snapshot model.FormSnapshot, action surface.Action, kinds ...eir.Kind) []downloadView {
	values := surface.EncodeForm(snapshot, action)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var fields []hiddenView
	for _, name := range names {
		for _, value := range values[name] {
			fields = append(fields, hiddenView{Name: name, Value: value})
		}
	}

	out := make([]downloadView, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, downloadView{
			Action: r.download + "/" + string(kind),
			Label:  "Download " + optionLabel(string(kind)),
			Fields: fields,
			Formats: []optionView{
				{Value: string(eir.FormatCSV), Label: "CSV", Checked: true},
				{Value: string(eir.FormatXLSX), Label: "Excel"},
			},
		})
	}
	return out
}

func reportView(report eir.Report) *scheduleView {
	view := &scheduleView{Method: optionLabel(string(report.Method)), DealID: report.DealID}
	for _, row := range report.Rows {
		line := rowView{
			Date:          row.Date,
			Currency:      row.Currency,
			Principal:     numeric.FormatThousands(row.Principal),
			TotalCashFlow: numeric.FormatThousands(row.TotalCashFlow),
			Capitalised:   numeric.FormatThousands(row.Capitalised),
			AmortizedCost: numeric.FormatThousands(row.AmortizedCost),
		}
		if row.Period > 0 {
			line.NominalRate = percent(row.NominalRate)
			line.NominalInterest = numeric.FormatThousands(row.NominalInterest)
			line.EffectiveInterest = numeric.FormatThousands(row.EffectiveInterest)
			line.Amortization = numeric.FormatThousands(row.Amortization)
			line.EffectiveRate = percent(row.EffectiveRate)
		}
		view.Rows = append(view.Rows, line)
	}
	return view
}

func compareView(c eir.Comparison) *comparisonView {
	view := &comparisonView{
		DealID:      c.DealID,
		ComplexTime: c.ComplexTime.String(),
		SimpleTime:  c.SimpleTime.String(),
		Efficiency:  percent(numeric.Round(c.Efficiency*100, 2)),
	}
	for _, row := range c.Periods {
		view.Periods = append(view.Periods, differenceView{
			Label:           row.Date,
			Principal:       numeric.FormatThousands(row.Principal),
			NominalRate:     percent(row.NominalRate),
			ComplexInterest: numeric.FormatThousands(row.ComplexInterest),
			SimpleInterest:  numeric.FormatThousands(row.SimpleInterest),
			ComplexRate:     percent(row.ComplexRate),
			SimpleRate:      percent(row.SimpleRate),
			InterestDiff:    numeric.FormatThousands(row.InterestDiff),
			RelativeDiff:    percent(numeric.Round(row.RelativeDiff, 2)),
			RateDiff:        percent(numeric.Round(row.RateDiff, 2)),
		})
	}
	for _, row := range c.Summary {
		view.Summary = append(view.Summary, differenceView{
			Label:           fmt.Sprint(row.Year),
			Principal:       numeric.FormatThousands(row.Principal),
			NominalRate:     percent(row.NominalRate),
			ComplexInterest: numeric.FormatThousands(row.ComplexInterest),
			SimpleInterest:  numeric.FormatThousands(row.SimpleInterest),
			ComplexRate:     percent(row.ComplexRate),
			SimpleRate:      percent(row.SimpleRate),
			InterestDiff:    numeric.FormatThousands(row.InterestDiff),
			RelativeDiff:    percent(numeric.Round(row.RelativeDiff, 2)),
			RateDiff:        percent(numeric.Round(row.RateDiff, 2)),
		})
	}
	return view
}

// percent renders a rate already expressed in percent.
func percent(v float64) string {
	return numeric.FormatNumber(v) + "%"
}
