package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wesm/strend/internal/output"
	"github.com/wesm/strend/internal/search"
	"github.com/wesm/strend/internal/trends"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	exportQueries []string
	exportFacets  string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch trends and write them as CSV without opening the dashboard",
	Long: `Fetch one or more searches and write the monthly counts as CSV.

With several --query flags the columns are the queries' totals, like the
dashboard's saved-query chart. With a single --query and --facets the
columns are the facet values instead.

Use --out - to write to stdout; on a terminal the result is printed as a
table.

Examples:
  strend export --query apache --query nginx
  strend export --query "port:22" --facets os --out os.csv
  strend export --query apache --out -`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadAPIKey()
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = cfg.Export.Path
		}
		opts := exportOptions{
			Queries: exportQueries,
			Facets:  exportFacets,
			Out:     out,
			TTY:     output.IsTerminal(os.Stdout),
		}
		return runExport(cmd.Context(), newClient(key), opts, cmd.OutOrStdout(), newPrinter(cmd))
	},
}

type exportOptions struct {
	Queries []string
	Facets  string
	// Out is a file path, or "-" for stdout.
	Out string
	// TTY renders stdout output as a table instead of CSV.
	TTY bool
}

func (o exportOptions) validate() ([]search.Request, error) {
	if len(o.Queries) == 0 {
		return nil, errors.New("at least one --query is required")
	}
	if len(o.Queries) > trends.MaxSaved {
		return nil, fmt.Errorf("at most %d queries can be exported together", trends.MaxSaved)
	}
	if o.Facets != "" && len(o.Queries) > 1 {
		return nil, errors.New("--facets can only be used with a single --query")
	}
	reqs := make([]search.Request, len(o.Queries))
	for i, q := range o.Queries {
		req, err := search.NewRequest(q, o.Facets)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		reqs[i] = req
	}
	return reqs, nil
}

// runExport fetches every query in parallel and writes the resulting table.
func runExport(ctx context.Context, f search.Fetcher, opts exportOptions, stdout io.Writer, p *output.Printer) error {
	reqs, err := opts.validate()
	if err != nil {
		return err
	}

	charts, err := fetchCharts(ctx, f, reqs)
	if err != nil {
		return err
	}

	store := trends.NewStore()
	for i, c := range charts {
		if c == nil {
			p.Warning("no results for %q", reqs[i].Query)
			continue
		}
		store.Insert(reqs[i].Identity, c)
	}

	chart := store.Overview()
	if opts.Facets != "" && charts[0].HasFacets() {
		chart = charts[0].Facets
	}
	if chart == nil {
		return trends.ErrNothingToExport
	}
	table := trends.BuildExport(chart, allIndices(len(chart.Datasets)))

	if opts.Out == "-" {
		if opts.TTY {
			if err := output.RenderTable(stdout, table); err != nil {
				return fmt.Errorf("render table: %w", err)
			}
			printTotals(stdout, chart)
			return nil
		}
		return trends.WriteCSV(stdout, table)
	}

	if err := trends.SaveCSV(opts.Out, table); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("chart exported", "path", opts.Out, "series", len(chart.Datasets))
	p.Success("Exported %d series to %s", len(chart.Datasets), opts.Out)
	return nil
}

// fetchCharts runs the searches concurrently. A search without results
// leaves a nil chart; any other failure aborts the export.
func fetchCharts(ctx context.Context, f search.Fetcher, reqs []search.Request) ([]*trends.Chart, error) {
	charts := make([]*trends.Chart, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(trends.MaxSaved)
	for i, req := range reqs {
		g.Go(func() error {
			body, err := f.Search(ctx, req.Query, req.Facets)
			if err != nil {
				return fmt.Errorf("search %q: %s", req.Query, search.Describe(err))
			}
			c, err := trends.BuildChart(body, req.Identity)
			if errors.Is(err, trends.ErrNoResults) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("search %q: %s", req.Query, search.Describe(err))
			}
			charts[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return charts, nil
}

// printTotals lists each series' total under the table.
func printTotals(w io.Writer, c *trends.Chart) {
	mp := message.NewPrinter(language.English)
	fmt.Fprintln(w)
	for _, ds := range c.Datasets {
		label := ds.Label
		if id := trends.Identity(label); id.Query() != "" {
			label = id.Query()
		}
		mp.Fprintf(w, "%s: %d total\n", label, ds.Total)
	}
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringArrayVarP(&exportQueries, "query", "q", nil, "search query (repeatable, up to 5)")
	exportCmd.Flags().StringVarP(&exportFacets, "facets", "f", "", "facet to break a single query out by")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", `output file, or "-" for stdout (default from config, ./data.csv)`)
}
