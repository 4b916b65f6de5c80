package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nllbd/internal/config"
	"nllbd/internal/lifecycle"
)

type serveFlags struct {
	host        string
	port        int
	transport   string
	engine      string
	engineURL   string
	modelID     string
	cacheDir    string
	corsOrigins string
}

func newServeCmd(st *cliState) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Convert the model if needed, load it and serve translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.finalize(func(c *config.Config) { f.apply(cmd, c) })
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, st)
		},
	}
	f.bind(cmd)
	return cmd
}

func (f *serveFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.host, "host", "", "Listen host (default HOST or ::)")
	fl.IntVar(&f.port, "port", 0, "Listen port (default PORT or 6060)")
	fl.StringVar(&f.transport, "transport", "", "Protocol: http|grpc")
	fl.StringVar(&f.engine, "engine", "", "Engine backend: remote|onnx")
	fl.StringVar(&f.engineURL, "engine-url", "", "Base URL of the remote engine worker")
	fl.StringVar(&f.modelID, "model", "", "Model identifier to convert and serve")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "Directory holding the optimized artifact")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma separated CORS origins (empty disables CORS)")
}

// apply copies only the flags the user set, so env and file values survive.
func (f *serveFlags) apply(cmd *cobra.Command, c *config.Config) {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("host") {
		c.Host = f.host
	}
	if changed("port") {
		c.Port = f.port
	}
	if changed("transport") {
		c.Transport = f.transport
	}
	if changed("engine") {
		c.Engine = f.engine
	}
	if changed("engine-url") {
		c.EngineURL = f.engineURL
	}
	if changed("model") {
		c.ModelID = f.modelID
	}
	if changed("cache-dir") {
		c.CacheDir = f.cacheDir
	}
	if changed("cors-origins") {
		c.CORSOrigins = splitCSV(f.corsOrigins)
	}
}

func runServe(ctx context.Context, cfg config.Config, st *cliState) error {
	log := st.log
	log.Info().
		Str("version", version).
		Str("model", cfg.ModelID).
		Str("transport", cfg.Transport).
		Str("engine", cfg.Engine).
		Bool("auth", cfg.AuthEnabled()).
		Msg("starting")

	ctrl, err := buildController(cfg, log)
	if err != nil {
		return err
	}
	err = ctrl.Run(ctx)
	if errors.Is(err, lifecycle.ErrShutdownTimeout) {
		return fmt.Errorf("drain: %w", err)
	}
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		log.Info().Msg("interrupted during startup")
		return nil
	}
	return err
}
