package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/celerix-dev/certify-one/internal/report"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/spf13/cobra"
)

func newReportCmd(open opener) *cobra.Command {
	var filter report.Filter

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize records by status, kind and department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			list, err := store.List()
			if err != nil {
				return err
			}
			summary := report.Summarize(filter.Apply(list))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
			return nil
		},
	}
	bindFilter(cmd, &filter)
	return cmd
}

func newExportCmd(open opener) *cobra.Command {
	var filter report.Filter
	var out string
	var ids []string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records as CSV",
		Long: `Export records as CSV. Without --out the file is named after today's date,
e.g. training_records_2024-07-04.csv. Use --out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			list, err := store.List()
			if err != nil {
				return err
			}
			list = selectIDs(filter.Apply(list), ids)

			if out == "-" {
				return report.WriteCSV(cmd.OutOrStdout(), list)
			}
			if out == "" {
				out = report.ExportFilename(time.Now())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.WriteCSV(f, list); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Exported"), len(list), "records to", out)
			return nil
		},
	}
	bindFilter(cmd, &filter)
	cmd.Flags().StringVar(&out, "out", "", "output file, - for stdout")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "export only these record ids")
	return cmd
}

func bindFilter(cmd *cobra.Command, f *report.Filter) {
	cmd.Flags().StringVar(&f.Search, "search", "", "match employee name or title")
	cmd.Flags().StringVar(&f.Kind, "type", "", "session|course|certification")
	cmd.Flags().StringVar(&f.Status, "status", "", "completed|in-progress|scheduled|pending")
	cmd.Flags().StringVar(&f.Department, "department", "", "department name")
	cmd.Flags().StringVar(&f.Category, "category", "", "category name")
	cmd.Flags().StringVar(&f.Employee, "employee", "", "employee name")
	cmd.Flags().StringVar(&f.DateFrom, "from", "", "earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.DateTo, "to", "", "latest date, YYYY-MM-DD")
}

func selectIDs(records []schema.Record, ids []string) []schema.Record {
	if len(ids) == 0 {
		return records
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	out := make([]schema.Record, 0, len(ids))
	for _, rec := range records {
		if want[rec.Common().ID] {
			out = append(out, rec)
		}
	}
	return out
}
