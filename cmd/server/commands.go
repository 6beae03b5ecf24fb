package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datatable/internal/generator"
	"github.com/JonMunkholm/datatable/internal/regions"
	"github.com/JonMunkholm/datatable/internal/table"
)

// queryFlags are the generation parameters shared by rows and export.
type queryFlags struct {
	region string
	errors float64
	seed   int64
	page   int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.region, "region", "r", regions.DefaultRegion, "region to generate for")
	fs.Float64VarP(&f.errors, "errors", "e", 0, "errors per record, 0 to 1000")
	fs.Int64VarP(&f.seed, "seed", "s", 0, "generator seed")
	fs.IntVar(&f.page, "page", generator.FirstPage, "page number")
}

func (f *queryFlags) query() (generator.Query, error) {
	if !regions.Builtin().Contains(f.region) {
		return generator.Query{}, fmt.Errorf("unknown region %q (see: datatable regions)", f.region)
	}
	q := generator.Query{
		Region:          f.region,
		ErrorsPerRecord: f.errors,
		Seed:            f.seed,
		PageNumber:      f.page,
	}
	return q, q.Validate()
}

func newRowsCmd(flags *globalFlags) *cobra.Command {
	var (
		qf     queryFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Print one page of generated rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			up, err := newUpstream(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer up.close()

			rows, err := up.client.ListRows(cmd.Context(), q)
			if err != nil {
				return table.NewUserError(err)
			}

			switch strings.ToLower(format) {
			case "csv":
				return writeRowsCSV(cmd.OutOrStdout(), rows)
			case "table":
				return writeRowsTable(cmd.OutOrStdout(), rows)
			default:
				return fmt.Errorf("unknown format %q: use table or csv", format)
			}
		},
	}

	qf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or csv")
	return cmd
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		qf     queryFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the CSV export for a parameter set",
		Long: `Download the CSV export the web UI offers for the same region, errors
per record, seed and page number. Use -o - to write to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			up, err := newUpstream(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer up.close()

			exp, err := table.NewExporter(up.client, nil, cfg.Export.FileName, nil).Export(cmd.Context(), q)
			if err != nil {
				return table.NewUserError(err)
			}

			if output == "" {
				output = exp.FileName
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(exp.Data)
				return err
			}
			if err := os.WriteFile(output, exp.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(exp.Data), output)
			return nil
		},
	}

	qf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default data.csv, - for stdout)")
	return cmd
}

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List selectable regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := regions.Builtin()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VALUE\tLABEL\tDEFAULT")
			for _, r := range catalog.Options() {
				def := ""
				if r.Value == catalog.Default() {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Value, r.Label, def)
			}
			return tw.Flush()
		},
	}
}

func writeRowsCSV(w io.Writer, rows []generator.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(generator.Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeRowsTable(w io.Writer, rows []generator.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no rows")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(generator.Columns, "\t")))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r.Record(), "\t"))
	}
	return tw.Flush()
}
