package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/runner"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

func (a *app) openHistory() (*history.Store, error) {
	if !a.cfg.History.Enabled {
		return nil, errors.New("run history is disabled (history.enabled: false)")
	}
	return history.New(a.cfg.HistoryStoreConfig())
}

func newHistoryCmd(a *app) *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "Search past validation runs",
		Long:  "Full-text search over document names, verdicts and issues. Without a query, lists recent runs.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			results, err := store.Search(query, history.SearchOptions{Status: status, Limit: limit})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(a.out, "No runs found.")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDOCUMENT\tVERDICT\tFAILED\tWARNINGS\tRUNS\tUPDATED")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID, r.Name, r.Status, r.Failed, r.Warnings, r.RunCount, r.UpdatedAt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by verdict (PASS, NEEDS_REVIEW, MINOR_REVISION, MAJOR_REVISION)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Max results")

	cmd.AddCommand(newHistoryShowCmd(a), newHistoryDeleteCmd(a), newHistoryStatsCmd(a))
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var detail string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := store.GetRun(args[0])
			if err != nil {
				return err
			}
			res := &runner.Result{Name: run.Name, RunID: run.ID}
			var report validation.Report
			if err := json.Unmarshal(run.Report, &report); err != nil {
				return fmt.Errorf("decoding stored report: %w", err)
			}
			res.Report = &report
			return render(a.out, runner.FormatReport(res, detail), pretty)
		},
	}
	cmd.Flags().StringVar(&detail, "detail", runner.DetailStandard, "Report detail: summary, standard or full")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Render the report for the terminal")
	return cmd
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRun(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted run %s\n", args[0])
			return nil
		},
	}
}

func newHistoryStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show run totals per verdict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			st, err := store.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d runs\n", st.TotalRuns)
			for _, s := range []string{validation.Pass, validation.NeedsReview, validation.MinorRevision, validation.MajorRevision} {
				fmt.Fprintf(a.out, "  %-15s %d\n", s, st.ByStatus[s])
			}
			return nil
		},
	}
}
