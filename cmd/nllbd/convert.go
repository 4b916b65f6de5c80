package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nllbd/internal/artifact"
	"nllbd/internal/config"
)

func newConvertCmd(st *cliState) *cobra.Command {
	var modelID, cacheDir string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the model into the artifact directory and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.finalize(func(c *config.Config) {
				if cmd.Flags().Changed("model") {
					c.ModelID = modelID
				}
				if cmd.Flags().Changed("cache-dir") {
					c.CacheDir = cacheDir
				}
			})
			if err != nil {
				return err
			}
			art, err := newCache(cfg, st.log).Ensure(cmd.Context(), cfg.ModelID, cfg.CacheDir)
			if err != nil {
				return err
			}
			desc, err := artifact.Describe(art.Dir)
			if err != nil {
				desc = art.Dir
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	}
	cmd.Flags().StringVar(&modelID, "model", "", "Model identifier to convert")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory receiving the optimized artifact")
	return cmd
}
