package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errResetNotConfirmed = errors.New("reset deletes all items and settings; pass --yes to confirm")

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data from both backends and return to key-value storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errResetNotConfirmed
			}
			return a.withCore(cmd, func(ctx context.Context, c *core) error {
				res := c.mgr.Reset(ctx)
				if !res.Success {
					return systemErr("reset: %s", res.Error)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "storage reset; active backend:", res.Data)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
