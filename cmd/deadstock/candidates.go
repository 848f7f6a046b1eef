package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/dead-stock/internal/cli"
	"github.com/Veraticus/dead-stock/internal/config"
)

func candidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Re-filter the last scan without spending credits",
		Long: `Apply new thresholds to the cached scan. Flags not given keep the
values of the last filter used.`,
		RunE: runCandidates,
	}

	addFilterFlags(cmd)

	return cmd
}

func runCandidates(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	v := viper.GetViper()

	a, err := newApp(ctx, v, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	base, ok, err := a.scanner.LastFilter(ctx, a.user)
	if err != nil || !ok {
		base = config.LoadFilterConfig(v)
	}

	result, err := a.scanner.Refilter(ctx, a.user, filterFromFlags(cmd, base))
	if err != nil {
		return cacheMissError(err)
	}
	if err := a.saveQueue(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printWarnings(cmd, result.Warnings)
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d removal candidates", len(result.Candidates))))
	fmt.Fprintln(out, cli.RenderListings(result.Candidates))
	return nil
}
