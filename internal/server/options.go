package server

import (
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/render"
	"github.com/goliatone/go-dealform/pkg/renderers/html"
	"github.com/goliatone/go-dealform/pkg/surface"
)

// Route paths, relative to the base path.
const (
	PathCalculation = "/calculation"
	PathTotal       = "/api/setup-costs/total"
	PathValidate    = "/api/validate"
	PathSchedule    = "/api/schedule"
	PathDownload    = "/download/"
	PathOpenAPI     = "/openapi.yaml"
	PathHealth      = "/healthz"
	PathAssets      = "/assets/themes/dealform/"
)

// MaxFormBytes bounds posted form and JSON bodies.
const MaxFormBytes = 1 << 20

type GuardFunc func(r *http.Request) error

type Options struct {
	BasePath string
	// NewSnapshot returns the blank form a GET renders.
	NewSnapshot func() model.FormSnapshot
	Contract    *surface.Contract
	// HTMLOptions are applied after the path-derived defaults of the page
	// renderer.
	HTMLOptions []html.Option
	// Renderers are registered after the HTML and JSON renderers.
	Renderers []render.Renderer
	Assets    fs.FS
	Guard     GuardFunc
	Logger    *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		NewSnapshot: func() model.FormSnapshot {
			return model.FormSnapshot{
				InterestType:      model.InterestTypeFixed,
				Structure:         model.StructureBullet,
				InterestFrequency: model.FrequencySemiAnnual,
				DayCount:          model.DayCountActualActual,
				SetupCostRows:     []model.SetupCostRow{{}},
				InterestRateRows:  []model.InterestRateRow{{}},
			}
		},
		Assets: html.AssetsFS(),
		Logger: zap.NewNop(),
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	defaults := DefaultOptions()
	if opts.NewSnapshot == nil {
		opts.NewSnapshot = defaults.NewSnapshot
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	opts.HTMLOptions = append([]html.Option(nil), opts.HTMLOptions...)
	opts.Renderers = append([]render.Renderer(nil), opts.Renderers...)
	return opts
}

func WithBasePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BasePath = path
	}
}

// WithSnapshot sets the blank form factory.
func WithSnapshot(fn func() model.FormSnapshot) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.NewSnapshot = fn
	}
}

func WithContract(contract *surface.Contract) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Contract = contract
	}
}

func WithHTMLOptions(opts ...html.Option) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.HTMLOptions = append(o.HTMLOptions, opts...)
	}
}

func WithRenderer(renderer render.Renderer) OptionFn {
	return func(o *Options) {
		if o == nil || renderer == nil {
			return
		}
		o.Renderers = append(o.Renderers, renderer)
	}
}

// WithAssets replaces the stylesheet and script bundle; nil disables the
// asset route.
func WithAssets(assets fs.FS) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Assets = assets
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
