package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/internal/authdb"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Back up or restore the authentication datastore",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "export [file]",
			Short: "Write users and sessions as JSON",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withAuth(cmd, func(ctx context.Context, s *authdb.Store) error {
					snap := s.ExportAll(ctx)
					if !snap.Success {
						return systemErr("auth export: %s", snap.Error)
					}
					return writeJSONTo(cmd.OutOrStdout(), args, snap.Data)
				})
			},
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Replace users and sessions from JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var snap authdb.AuthSnapshot
				if err := readJSONFrom(args[0], &snap); err != nil {
					return err
				}
				return a.withAuth(cmd, func(ctx context.Context, s *authdb.Store) error {
					if res := s.ImportAll(ctx, snap); !res.Success {
						return systemErr("auth import: %s", res.Error)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "imported %d users and %d sessions\n",
						len(snap.Users), len(snap.Sessions))
					return nil
				})
			},
		},
	)
	return cmd
}

func (a *app) withAuth(cmd *cobra.Command, fn func(ctx context.Context, s *authdb.Store) error) error {
	return a.withCore(cmd, func(ctx context.Context, c *core) error {
		if res := c.auth.Initialize(ctx); !res.Success {
			return systemErr("auth datastore: %s", res.Error)
		}
		return fn(ctx, c.auth)
	})
}
