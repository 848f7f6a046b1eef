package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/dead-stock/internal/cli"
	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/config"
	"github.com/Veraticus/dead-stock/internal/engine"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan listings and find removal candidates",
		Long: `Fetch, classify and score every listing, then apply the filter.

A scan within the cache window re-uses the previous snapshot for free.
Otherwise one credit is charged per listing; --force always fetches.`,
		RunE: runScan,
	}

	cmd.Flags().BoolP("force", "f", false, "Fetch fresh listings even if a recent scan is cached")
	addFilterFlags(cmd)

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	v := viper.GetViper()

	a, err := newApp(cmd.Context(), v, appOptions{marketplace: true})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	handler := cli.NewInterruptHandler(out)
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	progress := cli.NewProgress(out, "Scoring listings...")
	cfg := filterFromFlags(cmd, config.LoadFilterConfig(v))

	result, err := a.scanner.Scan(ctx, a.user, cfg, engine.ScanOptions{
		Force:    force,
		Progress: progress.Update,
	})
	progress.Finish()
	if err != nil {
		return scanError(err)
	}

	if err := a.saveQueue(ctx); err != nil {
		return err
	}

	printWarnings(cmd, result.Warnings)
	printScanResult(cmd, result)
	return nil
}

func printScanResult(cmd *cobra.Command, result *engine.ScanResult) {
	out := cmd.OutOrStdout()

	switch {
	case result.Superseded:
		fmt.Fprintln(out, cli.FormatWarning("A newer scan finished first; showing this scan's results without caching them"))
	case result.Costed:
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Scanned %d listings (%d credits used)", result.Snapshot.TotalCount, result.CreditsUsed)))
		fmt.Fprintln(out, cli.RenderCredits(result.Balance))
	default:
		fmt.Fprintln(out, cli.FormatInfo("Using cached scan (no credits used)"))
	}
	if result.CacheErr != nil {
		fmt.Fprintln(out, cli.FormatWarning("Could not cache this scan; the next scan will be charged again"))
	}

	fmt.Fprintln(out, cli.RenderSnapshotSummary(result.Snapshot, len(result.Candidates), time.Now()))
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d removal candidates", len(result.Candidates))))
	fmt.Fprintln(out, cli.RenderListings(result.Candidates))
}

// scanError turns scan failures into messages the user can act on.
func scanError(err error) error {
	var creditErr *common.CreditError
	var authErr *common.AuthError
	switch {
	case errors.As(err, &creditErr):
		return common.NewUserError(
			fmt.Sprintf("Not enough credits: this scan needs %d, top up at least %d", creditErr.Required, creditErr.Shortfall()), err)
	case errors.As(err, &authErr):
		return common.NewUserError("Marketplace account is not connected", err)
	case errors.Is(err, common.ErrFetchInFlight):
		return common.NewUserError("A scan is already running for this account", err)
	default:
		return err
	}
}
