package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dead-stock/internal/cli"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cached scan",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the cached scan; the next scan is charged",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.cache.Invalidate(cmd.Context(), a.user); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Cache cleared"))
				return nil
			})
		},
	})

	return cmd
}

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the cached scan of a disconnected marketplace account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.scanner.Disconnect(cmd.Context(), a.user); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Disconnected %s", a.user)))
				return nil
			})
		},
	}
}
