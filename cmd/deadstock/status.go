package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/dead-stock/internal/cli"
	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/storage"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show marketplace, credit, cache and queue status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, viper.GetViper(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "User:       %s\n", a.user)

	if a.client == nil {
		fmt.Fprintf(&b, "Marketplace: %s\n", cli.SubtleStyle.Render("not configured"))
	} else {
		if err := a.client.Health(ctx); err != nil {
			fmt.Fprintf(&b, "Marketplace: %s\n", cli.ErrorStyle.Render("unreachable ("+err.Error()+")"))
		} else {
			fmt.Fprintf(&b, "Marketplace: %s\n", cli.SuccessStyle.Render("ok"))
		}
		balance, err := a.client.Balance(ctx)
		if err != nil {
			fmt.Fprintf(&b, "Credits:    %s\n", cli.ErrorStyle.Render(err.Error()))
		} else {
			fmt.Fprintf(&b, "Credits:    %s\n", cli.RenderCredits(balance))
		}
	}

	snap, err := a.cache.Get(ctx, a.user)
	switch {
	case errors.Is(err, common.ErrCacheMiss):
		fmt.Fprintf(&b, "Last scan:  %s\n", cli.SubtleStyle.Render("none cached"))
	case err != nil:
		return err
	default:
		remaining := a.cache.TTL() - snap.Age(time.Now())
		fmt.Fprintf(&b, "Last scan:  %d listings, free re-filter for %s\n", snap.TotalCount, remaining.Round(time.Second))

		if _, err := a.loadPools(ctx, viper.GetViper()); err == nil {
			counts := a.queue.Counts()
			fmt.Fprintf(&b, "Pools:      %d active, %d candidates, %d queued\n",
				counts[model.PoolActive], counts[model.PoolCandidate], counts[model.PoolQueued])
		}
	}

	version, err := a.store.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(&b, "Database:   %s (schema v%d/%d)", a.store.Path(), version, storage.ExpectedSchemaVersion)

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("deadstock status", b.String()))
	return nil
}
