// Package server exposes the deal form over HTTP: the server-rendered page,
// the JSON helpers its runtime script calls, and the page contract.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/render"
	"github.com/goliatone/go-dealform/pkg/renderers/html"
	"github.com/goliatone/go-dealform/pkg/setupcost"
	"github.com/goliatone/go-dealform/pkg/surface"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Server holds the renderers and options shared by every route.
type Server struct {
	opts       Options
	renderers  *render.Registry
	calculator *setupcost.Calculator
	logger     *zap.Logger
}

// New resolves the contract and builds the page renderers.
func New(fns ...OptionFn) (*Server, error) {
	opts := NewOptions(fns...)

	contract := opts.Contract
	if contract == nil {
		loaded, err := surface.Load(context.Background())
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		contract = loaded
	}

	htmlOpts := []html.Option{
		html.WithContract(contract),
		html.WithAction(MountPath(opts.BasePath, PathCalculation)),
		html.WithTotalEndpoint(MountPath(opts.BasePath, PathTotal)),
		html.WithDownloadPath(MountPath(opts.BasePath, PathDownload)),
	}
	page, err := html.New(append(htmlOpts, opts.HTMLOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	registry := render.NewRegistry()
	for _, renderer := range append([]render.Renderer{page, render.JSONRenderer{}}, opts.Renderers...) {
		if err := registry.Register(renderer); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}

	return &Server{
		opts:       opts,
		renderers:  registry,
		calculator: setupcost.New(),
		logger:     opts.Logger,
	}, nil
}

// NewHandler builds a ServeMux with every route mounted under the base path.
func NewHandler(fns ...OptionFn) (http.Handler, error) {
	srv, err := New(fns...)
	if err != nil {
		return nil, err
	}
	return srv.Handler(), nil
}

// RegisterRoutes registers every route under basePath on mux and returns the
// registered patterns.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) ([]string, error) {
	if mux == nil {
		return nil, fmt.Errorf("server: missing mux")
	}
	srv, err := New(append(fns, WithBasePath(basePath))...)
	if err != nil {
		return nil, err
	}
	return srv.Register(mux), nil
}

// Handler returns a fresh mux serving every route, wrapped in request
// logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return logRequests(s.logger, mux)
}

// Register mounts the routes on mux.
func (s *Server) Register(mux Mux) []string {
	routes := []struct {
		path    string
		handler http.Handler
	}{
		{PathCalculation, s.guarded(http.HandlerFunc(s.handleCalculation))},
		{PathTotal, s.guarded(http.HandlerFunc(s.handleTotal))},
		{PathValidate, s.guarded(http.HandlerFunc(s.handleValidate))},
		{PathSchedule, s.guarded(http.HandlerFunc(s.handleSchedule))},
		{PathDownload, s.guarded(http.HandlerFunc(s.handleDownload))},
		{PathOpenAPI, http.HandlerFunc(handleOpenAPI)},
		{PathHealth, http.HandlerFunc(handleHealth)},
	}

	var patterns []string
	for _, route := range routes {
		pattern := MountPath(s.opts.BasePath, route.path)
		mux.Handle(pattern, route.handler)
		patterns = append(patterns, pattern)
	}

	if s.opts.Assets != nil {
		pattern := MountPath(s.opts.BasePath, PathAssets)
		mux.Handle(pattern, http.StripPrefix(pattern, http.FileServer(http.FS(s.opts.Assets))))
		patterns = append(patterns, pattern)
	}
	return patterns
}

// AssetURL returns the public URL of an embedded asset under basePath.
func AssetURL(basePath, name string) string {
	return MountPath(basePath, PathAssets) + strings.TrimPrefix(name, "/")
}

func (s *Server) guarded(next http.Handler) http.Handler {
	if s.opts.Guard == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.opts.Guard(r); err != nil {
			writeGuardError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MountPath joins basePath and routePath into a rooted pattern. A trailing
// slash on routePath is kept.
func MountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
