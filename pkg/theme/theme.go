// Package theme resolves the page theme of the deal form: design tokens,
// their CSS custom properties, template partials and asset URLs, merged from
// a go-theme manifest and one of its variants.
package theme

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

var (
	// ErrUnknownTheme is returned when no manifest is registered under a name.
	ErrUnknownTheme = errors.New("theme: unknown theme")
	// ErrUnknownVariant is returned for variants the manifest does not define.
	ErrUnknownVariant = errors.New("theme: unknown variant")
)

// DefaultName is the built-in theme.
const DefaultName = "dealform"

// Partial keys the page templates look up.
const (
	PartialPage       = "deal.page"
	PartialSummary    = "deal.summary"
	PartialReport     = "deal.report"
	PartialComparison = "deal.comparison"
)

// AssetStylesheet is the asset key of the page stylesheet.
const AssetStylesheet = "deal.stylesheet"

// DefaultManifest returns the built-in light theme with its dark variant.
func DefaultManifest() *gotheme.Manifest {
	return &gotheme.Manifest{
		Name:    DefaultName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":        "#1f4e79",
			"danger":       "#b42318",
			"surface":      "#ffffff",
			"text":         "#1d2939",
			"muted":        "#667085",
			"border":       "#d0d5dd",
			"font-family":  "system-ui, sans-serif",
			"radius":       "4px",
			"input-height": "2.25rem",
		},
		Templates: map[string]string{
			PartialPage:       "calculation.tpl",
			PartialSummary:    "summary.tpl",
			PartialReport:     "report.tpl",
			PartialComparison: "comparison.tpl",
		},
		Assets: gotheme.Assets{
			Prefix: "/assets/themes/dealform",
			Files: map[string]string{
				AssetStylesheet: "deal.css",
			},
		},
		Variants: map[string]gotheme.Variant{
			"dark": {
				Tokens: map[string]string{
					"surface": "#101828",
					"text":    "#f2f4f7",
					"muted":   "#98a2b3",
					"border":  "#344054",
				},
				Assets: gotheme.Assets{
					Files: map[string]string{
						AssetStylesheet: "deal.dark.css",
					},
				},
			},
		},
	}
}

// Selector picks a theme and variant from the registered manifests and
// derives the renderer configuration.
type Selector struct {
	manifests      map[string]*gotheme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ gotheme.ThemeSelector = (*Selector)(nil)

// NewSelector registers manifests (the built-in one when none are given).
// Every manifest is checked by a go-theme registry before it is accepted.
func NewSelector(defaultTheme, defaultVariant string, manifests ...*gotheme.Manifest) (*Selector, error) {
	if len(manifests) == 0 {
		manifests = []*gotheme.Manifest{DefaultManifest()}
	}
	registry := gotheme.NewRegistry()
	s := &Selector{
		manifests:      make(map[string]*gotheme.Manifest, len(manifests)),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("theme: register %q: %w", manifest.Name, err)
		}
		s.manifests[manifest.Name] = manifest
	}
	if s.defaultTheme == "" {
		s.defaultTheme = manifests[0].Name
	}
	if _, ok := s.manifests[s.defaultTheme]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTheme, s.defaultTheme)
	}
	return s, nil
}

// Select resolves name and variant, falling back to the defaults when blank.
func (s *Selector) Select(name, variant string, _ ...gotheme.QueryOption) (*gotheme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
	}
	variant = strings.TrimSpace(variant)
	if variant == "" && name == s.defaultTheme {
		variant = s.defaultVariant
	}

	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnknownVariant, name, variant)
		}
	}
	return &gotheme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Config selects a theme and flattens it into renderer configuration.
func (s *Selector) Config(name, variant string) (*gotheme.RendererConfig, error) {
	selection, err := s.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return RendererConfig(selection), nil
}

// RendererConfig merges the variant over the base manifest. Tokens become
// CSS custom properties named after the token.
func RendererConfig(selection *gotheme.Selection) *gotheme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant := manifest.Variants[selection.Variant]

	tokens := merge(manifest.Tokens, variant.Tokens)
	partials := merge(manifest.Templates, variant.Templates)
	files := merge(manifest.Assets.Files, variant.Assets.Files)
	prefix := manifest.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	return &gotheme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Tokens:   tokens,
		Partials: partials,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") || prefix == "" {
				return file
			}
			return path.Join(prefix, file)
		},
	}
}

// CSSVarsStyle renders custom properties as a sorted inline declaration list.
func CSSVarsStyle(cfg *gotheme.RendererConfig) string {
	if cfg == nil || len(cfg.CSSVars) == 0 {
		return ""
	}
	var b strings.Builder
	for i, key := range slices.Sorted(maps.Keys(cfg.CSSVars)) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(cfg.CSSVars[key])
		b.WriteByte(';')
	}
	return b.String()
}

func merge(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}
