package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arifinrio95/auto-dashboard/internal/probe"
	"github.com/arifinrio95/auto-dashboard/internal/source"
)

func newProfileCmd(root *rootOptions) *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the column profile of a table without calling the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(false, "")
			if err != nil {
				return err
			}
			srcCfg, err := src.config(cfg.Limits)
			if err != nil {
				return err
			}

			t, err := source.Load(cmd.Context(), srcCfg)
			if err != nil {
				return err
			}
			profiles, err := probe.Profile(t)
			if err != nil {
				return err
			}
			logger.Debug("profiled", "rows", t.NumRows(), "columns", t.NumCols())
			fmt.Fprintln(root.stdout, probe.FormatReport(profiles, t.NumRows()))
			return nil
		},
	}
	src.register(cmd.Flags())
	return cmd
}
