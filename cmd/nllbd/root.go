package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nllbd/internal/config"
)

// cliState is shared by every subcommand after PersistentPreRunE.
type cliState struct {
	configPath string
	envFiles   []string
	logLevel   string
	logFormat  string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:           "nllbd",
		Short:         "Batch translation server for NLLB-200 models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&st.configPath, "config", "c", os.Getenv("NLLB_CONFIG"), "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringSliceVar(&st.envFiles, "env-file", nil, "Dotenv files to load before reading the environment (default .env)")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error (overrides NLLB_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&st.logFormat, "log-format", "", "Log format: json|console (overrides NLLB_LOG_FORMAT)")

	serve := newServeCmd(st)
	root.AddCommand(serve, newConvertCmd(st), newTranslateCmd(st), newVersionCmd())
	// Running the bare binary serves, as container entrypoints expect.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

// load resolves configuration in order defaults, file, environment, flags.
func (st *cliState) load(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(st.envFiles...); err != nil {
		return err
	}
	cfg, err := config.Resolve(st.configPath)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.LogLevel = st.logLevel
	}
	if st.logFormat != "" {
		cfg.LogFormat = st.logFormat
	}
	st.cfg = cfg
	st.log = newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return nil
}

// finalize applies flag overrides collected by a subcommand, then validates.
func (st *cliState) finalize(apply func(*config.Config)) (config.Config, error) {
	cfg := st.cfg
	if apply != nil {
		apply(&cfg)
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	st.log = newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "nllbd", version)
		},
	}
}
