package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/dead-stock/internal/cli"
	"github.com/Veraticus/dead-stock/internal/engine"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
	"github.com/Veraticus/dead-stock/internal/view"
)

func viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "view [total|all|candidates|queue|history]",
		Short:     "Show one dashboard view of the last scan",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"total", "all", "candidates", "queue", "history"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := view.Total
			if len(args) == 1 {
				s, err := view.ParseState(args[0])
				if err != nil {
					return err
				}
				target = s
			}

			return withApp(cmd, func(a *app) error {
				d := newDashboard(a, cmd.OutOrStdout())
				return d.show(cmd.Context(), target)
			})
		},
	}

	return cmd
}

// dashboard binds view states to data loads and renders the result.
type dashboard struct {
	app     *app
	machine *view.Machine
	out     io.Writer
	result  *engine.ScanResult
	body    string
}

func newDashboard(a *app, out io.Writer) *dashboard {
	d := &dashboard{app: a, machine: view.New(), out: out}

	d.machine.OnEnter(view.Total, func(ctx context.Context) error {
		if err := d.load(ctx); err != nil {
			return err
		}
		d.body = cli.RenderSnapshotSummary(d.result.Snapshot, len(d.result.Candidates), time.Now())
		return nil
	})
	d.machine.OnEnter(view.AllListings, func(ctx context.Context) error {
		if err := d.load(ctx); err != nil {
			return err
		}
		d.body = cli.RenderListings(d.result.Snapshot.Listings)
		return nil
	})
	d.machine.OnEnter(view.Candidates, func(ctx context.Context) error {
		if err := d.load(ctx); err != nil {
			return err
		}
		d.body = cli.RenderListings(d.app.queue.Listings(model.PoolCandidate))
		return nil
	})
	d.machine.OnEnter(view.Queue, func(ctx context.Context) error {
		if err := d.load(ctx); err != nil {
			return err
		}
		d.body = cli.RenderQueue(d.app.queue.GroupBySupplier())
		return nil
	})
	d.machine.OnEnter(view.History, func(ctx context.Context) error {
		total, err := d.app.history.Count(ctx, d.app.user)
		if err != nil {
			return err
		}
		var records []model.AuditRecord
		if reader, ok := d.app.history.(service.HistoryReader); ok {
			if records, err = reader.Recent(ctx, d.app.user, 20); err != nil {
				return err
			}
		}
		d.body = cli.RenderHistory(records, total)
		return nil
	})

	return d
}

// load fetches the cached scan once per dashboard.
func (d *dashboard) load(ctx context.Context) error {
	if d.result != nil {
		return nil
	}
	result, err := d.app.loadPools(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	d.result = result
	return nil
}

func (d *dashboard) show(ctx context.Context, target view.State) error {
	if err := d.machine.Navigate(ctx, target); err != nil {
		fmt.Fprintln(d.out, cli.FormatError(userMessage(err)))
		return err
	}

	fmt.Fprintln(d.out, cli.FormatTitle(string(d.machine.State())))
	fmt.Fprintln(d.out, d.body)
	return nil
}
