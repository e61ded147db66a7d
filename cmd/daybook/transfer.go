package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a snapshot of the active backend as JSON",
		Long:  "Write a snapshot of the active backend as JSON to file, or to stdout when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd, func(ctx context.Context, c *core) error {
				p, err := c.mgr.Storage()
				if err != nil {
					return systemErr("%w", err)
				}
				snap := p.ExportAll(ctx)
				if !snap.Success {
					return systemErr("export: %s", snap.Error)
				}
				return writeJSONTo(cmd.OutOrStdout(), args, snap.Data)
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the active backend's data with a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap types.Snapshot
			if err := readJSONFrom(args[0], &snap); err != nil {
				return err
			}
			if err := snap.Items.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			snap.Settings = snap.Settings.WithDefaults()
			return a.withCore(cmd, func(ctx context.Context, c *core) error {
				p, err := c.mgr.Storage()
				if err != nil {
					return systemErr("%w", err)
				}
				if res := p.ImportAll(ctx, snap); !res.Success {
					return systemErr("import: %s", res.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d items into %s\n", snap.ItemCount(), p.Type())
				return nil
			})
		},
	}
}

// writeJSONTo writes v to args[0] when present, otherwise to stdout.
func writeJSONTo(stdout io.Writer, args []string, v any) error {
	if len(args) == 0 {
		return printJSON(stdout, v)
	}
	f, err := os.Create(args[0])
	if err != nil {
		return systemErr("create %s: %w", args[0], err)
	}
	if err := printJSON(f, v); err != nil {
		f.Close()
		return systemErr("write %s: %w", args[0], err)
	}
	if err := f.Close(); err != nil {
		return systemErr("write %s: %w", args[0], err)
	}
	return nil
}

func readJSONFrom(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", path, types.ErrMalformedData, err)
	}
	return nil
}
