package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/internal/config"
	"github.com/goliatone/go-dealform/internal/server"
	"github.com/goliatone/go-dealform/pkg/renderers/html"
	"github.com/goliatone/go-dealform/pkg/theme"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the deal form over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if addr != "" {
				cfg.Server.Addr = addr
			}
			handler, err := newHandler(cfg, logger)
			if err != nil {
				return err
			}
			return listen(cmd.Context(), cfg.Server.Addr, handler, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// newHandler wires the configured theme, form defaults and runtime script
// into the HTTP routes.
func newHandler(cfg config.Config, logger *zap.Logger) (http.Handler, error) {
	manifest := theme.DefaultManifest()
	manifest.Assets.Prefix = strings.TrimSuffix(server.AssetURL(cfg.Server.BasePath, ""), "/")

	selector, err := theme.NewSelector(cfg.Theme.Name, cfg.Theme.Variant, manifest)
	if err != nil {
		return nil, err
	}
	themeCfg, err := selector.Config(cfg.Theme.Name, cfg.Theme.Variant)
	if err != nil {
		return nil, err
	}

	htmlOpts := []html.Option{html.WithTheme(themeCfg), html.WithTitle(cfg.Theme.Title)}
	if cfg.Server.Script {
		htmlOpts = append(htmlOpts, html.WithScriptURL(server.AssetURL(cfg.Server.BasePath, html.RuntimeScriptName)))
	}

	srv, err := server.New(
		server.WithBasePath(cfg.Server.BasePath),
		server.WithSnapshot(cfg.Form.Snapshot),
		server.WithHTMLOptions(htmlOpts...),
		server.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return srv.Handler(), nil
}

func listen(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
