package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/logging"
	"github.com/safa0/radiantctl/preset"
	"github.com/safa0/radiantctl/reconcile"
	"github.com/safa0/radiantctl/storage"
)

func newPresetsCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Inspect and edit stored presets",
		Long: `Inspect and edit the preset store directly, without a running daemon.

Do not run these while the daemon is serving the same storage: the daemon
does not reload presets written by another process.

Examples:
  radiantctl presets list
  radiantctl presets show mid
  radiantctl presets duplicate brightest
  radiantctl presets delete brightest_copy_1`,
	}

	cmd.AddCommand(newPresetsListCmd(load))
	cmd.AddCommand(newPresetsShowCmd(load))
	cmd.AddCommand(newPresetsDeleteCmd(load))
	cmd.AddCommand(newPresetsDuplicateCmd(load))

	return cmd
}

// offline bundles the store with a reconciler that has no device to talk to.
type offline struct {
	kv    storage.KV
	store *preset.Store
	rec   *reconcile.Reconciler
}

type noCommands struct{}

func (noCommands) Dispatch(display.Command) bool { return false }

func openOffline(ctx context.Context, load configLoader) (*offline, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging, Version).With("component", "cli")

	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	store, err := preset.NewStore(ctx, kv, logger)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return &offline{
		kv:    kv,
		store: store,
		rec:   reconcile.New(store, display.NewCache(), noCommands{}, logger),
	}, nil
}

func (o *offline) Close() error { return o.kv.Close() }

func newPresetsListCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := openOffline(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer o.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tVALUES")
			for _, p := range o.store.List() {
				kind := "built-in"
				if p.IsCustom {
					kind = "custom"
					if p.IsModified {
						kind = "custom*"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, kind, formatValues(p.Values))
			}
			return w.Flush()
		},
	}
}

func newPresetsShowCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := openOffline(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer o.Close()

			p, err := o.store.Get(args[0])
			if err != nil {
				return fmt.Errorf("preset %q: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:       %s\n", p.ID)
			fmt.Fprintf(out, "name:     %s\n", p.Name)
			fmt.Fprintf(out, "custom:   %t\n", p.IsCustom)
			fmt.Fprintf(out, "modified: %t\n", p.IsModified)
			fmt.Fprintln(out, "values:")
			for _, code := range p.Values.Codes() {
				fmt.Fprintf(out, "  %s: %d\n", code, p.Values[code])
			}
			return nil
		},
	}
}

func newPresetsDeleteCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a custom preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := openOffline(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer o.Close()

			if err := o.rec.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newPresetsDuplicateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a preset under a new id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := openOffline(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer o.Close()

			p, err := o.rec.Duplicate(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("duplicating %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", p.ID, p.Name)
			return nil
		},
	}
}

func formatValues(v preset.Values) string {
	parts := make([]string, 0, len(v))
	for _, code := range v.Codes() {
		parts = append(parts, fmt.Sprintf("%s=%d", code, v[code]))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
