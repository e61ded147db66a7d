package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <keyvalue|relational>",
		Short: "Move all data to another backend and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := types.ParseBackendType(args[0])
			if err != nil {
				return err
			}
			return a.withCore(cmd, func(ctx context.Context, c *core) error {
				progress := func(p types.Progress) {
					if !a.jsonMode {
						fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %-10s %s\n", p.Percent, p.Phase, p.Message)
					}
				}
				res := c.mgr.Migrate(ctx, target, progress)
				if !res.Success {
					return systemErr("%s", res.Error)
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), res.Data)
				}
				if res.Data.From == res.Data.To {
					fmt.Fprintf(cmd.OutOrStdout(), "already using %s\n", target)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %d items from %s to %s in %s\n",
					res.Data.ItemCount, res.Data.From, res.Data.To, res.Data.Duration)
				return nil
			})
		},
	}
}
