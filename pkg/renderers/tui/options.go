package tui

import (
	"io"

	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/surface"
)

// OutputFormat controls how an accepted deal is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits the normalised deal as application/json.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits the submitted form as
	// application/x-www-form-urlencoded.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ParseOutputFormat maps a flag value, defaulting to JSON.
func ParseOutputFormat(raw string) OutputFormat {
	switch format := OutputFormat(raw); format {
	case OutputFormatFormURLEncoded, OutputFormatPrettyText:
		return format
	default:
		return OutputFormatJSON
	}
}

// Theme captures optional formatting hints the driver can apply when printing
// messages. Keep minimal to avoid coupling renderer logic to ANSI specifics.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where the default survey driver prints messages.
func WithOutput(out io.Writer) Option {
	return func(r *Renderer) {
		r.out = out
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithContract sets the contract prompts take their labels and order from.
func WithContract(contract *surface.Contract) Option {
	return func(r *Renderer) {
		if contract != nil {
			r.contract = contract
		}
	}
}

// WithLogger sets the logger handed to the form controller.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
