package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and initialize storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd, func(ctx context.Context, c *core) error {
				backend := c.mgr.ActiveBackendType()
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]string{
						"backend":  string(backend),
						"data_dir": a.cfg.DataDir,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "daybook initialized")
				fmt.Fprintln(out, "  backend:", backend)
				fmt.Fprintln(out, "  data:   ", a.cfg.DataDir)
				return nil
			})
		},
	}
}
