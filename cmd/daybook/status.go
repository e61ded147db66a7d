package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active backend and storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd, func(ctx context.Context, c *core) error {
				res := c.mgr.Stats(ctx)
				if !res.Success {
					return systemErr("stats: %s", res.Error)
				}
				st := res.Data
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), st)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "backend:  %s\n", st.ActiveBackend)
				fmt.Fprintf(out, "items:    %d\n", st.ItemCount)
				fmt.Fprintf(out, "size:     %s\n", humanize.Bytes(uint64(st.EstimatedBytes)))
				if st.LastMigration != nil {
					fmt.Fprintf(out, "migrated: %s\n", humanize.Time(*st.LastMigration))
				} else {
					fmt.Fprintln(out, "migrated: never")
				}
				return nil
			})
		},
	}
}
