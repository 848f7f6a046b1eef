package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dead-stock/internal/cli"
	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write removal files for the queued listings",
		Long: `Export each supplier group in the queue to a file for its automation
tool. Exported listings are recorded in the removal history and leave
the queue. A failed export leaves the queue untouched.`,
		RunE: runExport,
	}

	cmd.Flags().StringP("supplier", "s", "", "Export only this supplier group")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	supplier, _ := cmd.Flags().GetString("supplier")
	yes, _ := cmd.Flags().GetBool("yes")

	return withPools(cmd, func(a *app) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		groups := selectGroups(a.queue.GroupBySupplier(), supplier)
		if len(groups) == 0 {
			return common.NewUserError("Nothing queued for export", common.ErrNothingQueued)
		}

		if !yes {
			fmt.Fprintln(out, cli.RenderQueue(groups))
			ok, err := cli.NewPrompter(os.Stdin, out).Confirm(ctx, fmt.Sprintf("Export %d listings?", countListings(groups)))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, cli.FormatInfo("Export canceled"))
				return nil
			}
		}

		a.exporter.Subscribe(func(total int) {
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d listings removed to date", total)))
		})

		for _, g := range groups {
			result, err := a.exporter.ExportGroup(ctx, g.SupplierName)
			if err != nil {
				return fmt.Errorf("%s: %w", g.SupplierName, err)
			}
			if result.AuditErr != nil {
				fmt.Fprintln(out, cli.FormatWarning("History was not recorded: "+result.AuditErr.Error()))
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s: %d listings → %s", g.SupplierName, result.Exported, result.Path)))
		}
		return nil
	})
}

func selectGroups(groups []model.QueueGroup, supplier string) []model.QueueGroup {
	if supplier == "" {
		return groups
	}
	for _, g := range groups {
		if strings.EqualFold(g.SupplierName, supplier) {
			return []model.QueueGroup{g}
		}
	}
	return nil
}

func countListings(groups []model.QueueGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Listings)
	}
	return n
}
