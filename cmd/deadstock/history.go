package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dead-stock/internal/cli"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show exported listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			return withApp(cmd, func(a *app) error {
				ctx := cmd.Context()

				total, err := a.history.Count(ctx, a.user)
				if err != nil {
					return fmt.Errorf("failed to count history: %w", err)
				}

				var records []model.AuditRecord
				if reader, ok := a.history.(service.HistoryReader); ok {
					records, err = reader.Recent(ctx, a.user, limit)
					if err != nil {
						return fmt.Errorf("failed to read history: %w", err)
					}
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderHistory(records, total))
				return nil
			})
		},
	}

	cmd.Flags().IntP("limit", "n", 50, "Number of records to show")

	return cmd
}
