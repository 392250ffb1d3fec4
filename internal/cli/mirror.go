package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/caredata/internal/core"
	"github.com/JonMunkholm/caredata/internal/store"
)

// errMirrorDisabled is returned by mirror commands without DATABASE_URL.
var errMirrorDisabled = errors.New("database mirror is disabled: set DATABASE_URL")

func (a *app) mirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Manage the PostgreSQL mirror",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Apply the schema and copy the current dataset into the mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				// Refresh only logs mirror failures; sync directly instead.
				ds, err := a.snapshot(ctx)
				if err != nil {
					return err
				}
				if err := st.SyncSnapshot(ctx, ds); err != nil {
					return err
				}

				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TABLE\tROWS")
				for _, table := range []string{"hospitals", "providers", "patients", "treatments", "rejections", "snapshots"} {
					n, err := st.CountRows(ctx, table)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%s\t%d\n", table, n)
				}
				return tw.Flush()
			})
		},
	})

	var limit int
	editsCmd := &cobra.Command{
		Use:   "edits",
		Short: "Show the most recent journaled treatment edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				edits, err := a.service(core.WithJournal(st)).RecentEdits(ctx, limit)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(edits)
				}

				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "AT\tACTION\tINDEX\tAPPLIED\tDETAILS")
				for _, e := range edits {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n",
						e.At.Format(time.RFC3339), e.Action, e.Index, e.Applied, e.Treatment.Details)
				}
				return tw.Flush()
			})
		},
	}
	editsCmd.Flags().IntVar(&limit, "limit", core.DefaultHistoryLimit, "Maximum number of edits to show")
	cmd.AddCommand(editsCmd)

	var olderThan time.Duration
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries and snapshot rows past the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				retention := olderThan
				if retention <= 0 {
					retention = a.cfg.Journal.Retention
				}
				cutoff := time.Now().Add(-retention)

				edits, err := st.PruneEdits(ctx, cutoff)
				if err != nil {
					return err
				}
				snapshots, err := st.PruneSnapshots(ctx, cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "deleted %d edits and %d snapshots older than %s\n",
					edits, snapshots, cutoff.Format(time.RFC3339))
				return nil
			})
		},
	}
	pruneCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention window (default JOURNAL_RETENTION)")
	cmd.AddCommand(pruneCmd)

	return cmd
}

// withStore connects to the mirror, applies the schema and runs fn.
func (a *app) withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	if !a.cfg.Database.MirrorEnabled() {
		return errMirrorDisabled
	}

	pool, err := store.Connect(ctx, a.cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.New(pool)
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return fn(ctx, st)
}
