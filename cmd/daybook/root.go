package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/internal/paths"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries the global flags and the loaded configuration for one
// invocation.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool

	cfg types.Config
}

// NewRootCmd builds the command tree with its own flag state.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "daybook",
		Short:         "Administer daybook storage",
		Long:          "daybook inspects and maintains the note, task and journal store:\nbackend selection, migration, snapshots and the auth datastore.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newStatusCmd(a),
		newMigrateCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newResetCmd(a),
		newAuthCmd(a),
	)
	return root
}

func (a *app) loadConfig() error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return systemErr("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	cfg.DataDir, err = paths.ResolveDataDir(a.dataDir, cfg.DataDir)
	if err != nil {
		return systemErr("resolve data dir: %w", err)
	}
	a.cfg = cfg
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withCore opens the storage core, runs fn and closes the core.
func (a *app) withCore(cmd *cobra.Command, fn func(ctx context.Context, c *core) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := openCore(ctx, a.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	runErr := fn(ctx, c)
	if err := c.Close(ctx); err != nil && runErr == nil {
		runErr = systemErr("close storage: %w", err)
	}
	return runErr
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the daybook version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "daybook", version)
			return err
		},
	}
}
