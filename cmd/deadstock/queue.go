package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/dead-stock/internal/cli"
	"github.com/Veraticus/dead-stock/internal/model"
)

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Stage removal candidates for export",
		Long: `Move candidates into the removal queue, take them back out, and set
how each supplier group is exported.`,
	}

	cmd.AddCommand(queueAddCmd())
	cmd.AddCommand(queueRemoveCmd())
	cmd.AddCommand(queueListCmd())
	cmd.AddCommand(queueToolCmd())
	cmd.AddCommand(queueSyncCmd())

	return cmd
}

func queueAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [listing-id...]",
		Short: "Queue candidates for removal",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if !all && len(args) == 0 {
				return fmt.Errorf("give listing ids or --all")
			}

			return withPools(cmd, func(a *app) error {
				ids := args
				if all {
					ids = model.IDs(a.queue.Listings(model.PoolCandidate))
				}

				moved := a.queue.Add(ids)
				if err := a.saveQueue(cmd.Context()); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Queued %d listings", len(moved))))
				if skipped := len(ids) - len(moved); skipped > 0 {
					fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d ids were not candidates", skipped)))
				}
				return nil
			})
		},
	}

	cmd.Flags().Bool("all", false, "Queue every current candidate")

	return cmd
}

func queueRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [listing-id...]",
		Short: "Return queued listings to the candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if !all && len(args) == 0 {
				return fmt.Errorf("give listing ids or --all")
			}

			return withPools(cmd, func(a *app) error {
				var moved []string
				switch {
				case all:
					moved = a.queue.BulkRemove(model.IDs(a.queue.Listings(model.PoolQueued)))
				case len(args) == 1:
					if err := a.queue.Remove(args[0]); err != nil {
						return err
					}
					moved = args
				default:
					moved = a.queue.BulkRemove(args)
				}

				if err := a.saveQueue(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Returned %d listings to candidates", len(moved))))
				return nil
			})
		},
	}

	cmd.Flags().Bool("all", false, "Empty the whole queue")

	return cmd
}

func queueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the queue grouped by supplier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPools(cmd, func(a *app) error {
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderQueue(a.queue.GroupBySupplier()))
				return nil
			})
		},
	}
}

func queueToolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tool <supplier> <tool>",
		Short: "Set the export tool of a supplier group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				a.queue.SetExportTool(args[0], args[1])
				if err := a.saveQueue(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s exports with %s", args[0], args[1])))
				return nil
			})
		},
	}
}

func queueSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <supplier> <true|false>",
		Short: "Export a supplier group's surviving inventory instead of deletions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid sync value %q: %w", args[1], err)
			}

			return withApp(cmd, func(a *app) error {
				a.queue.SetSyncMode(args[0], sync)
				if err := a.saveQueue(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s export mode: %s", args[0], model.ModeFor(sync))))
				return nil
			})
		},
	}
}

// withApp runs fn against a freshly wired app.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := newApp(cmd.Context(), viper.GetViper(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withPools runs fn after loading the cached scan into the queue.
func withPools(cmd *cobra.Command, fn func(a *app) error) error {
	return withApp(cmd, func(a *app) error {
		if _, err := a.loadPools(cmd.Context(), viper.GetViper()); err != nil {
			return err
		}
		return fn(a)
	})
}
