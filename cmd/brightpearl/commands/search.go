package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// searchSource picks the resource a list or search command reads from.
type searchSource func(brightpearl.Client) brightpearl.SearchClient

func ordersSource(client brightpearl.Client) brightpearl.SearchClient {
	return client.Orders()
}

func productsSource(client brightpearl.Client) brightpearl.SearchClient {
	return client.Products()
}

// listFlags holds the flags shared by list and export commands.
type listFlags struct {
	pageSize int
	page     int
	orderBy  string
	columns  []string
	filters  []string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.pageSize, "page-size", constants.DefaultPageSize, "results per page")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number to read or start from")
	cmd.Flags().StringVar(&f.orderBy, "order-by", "", "column to sort by, prefix with - for descending")
	cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "columns to return (default: resource default)")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "search filter as key=value (repeatable)")
}

func (f *listFlags) options(cmd *cobra.Command) (*brightpearl.ListOptions, error) {
	filters, err := parseFilters(f.filters)
	if err != nil {
		return nil, err
	}

	opts := &brightpearl.ListOptions{
		PageSize: f.pageSize,
		Page:     f.page,
		OrderBy:  f.orderBy,
		Filters:  filters,
	}

	if cmd.Flags().Changed("columns") {
		opts.Columns = f.columns
	}

	return opts, nil
}

func newListCommand(resource string, source searchSource) *cobra.Command {
	var (
		flags    listFlags
		all      bool
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + resource,
		Long: fmt.Sprintf(`List %s through the search endpoint.

Without --all a single page is read. With --all pages are read until a short
page, optionally capped by --max-pages.`, resource),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			search := source(client)

			if all {
				records, err := search.CollectRecords(cmd.Context(), opts, maxPages)
				if err != nil {
					return fmt.Errorf("failed to list %s: %w", resource, err)
				}

				return writeRecords(cmd.OutOrStdout(), opts.Columns, records)
			}

			payload, err := search.List(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", resource, err)
			}

			return writeRecords(cmd.OutOrStdout(), brightpearl.ColumnNames(payload.Response()), brightpearl.Normalize(payload))
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "read every page")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages with --all (0 for no limit)")

	return cmd
}

func newSearchCommand(resource string, source searchSource) *cobra.Command {
	var (
		columns     []string
		sort        string
		pageSize    int
		page        int
		firstResult int
		filters     []string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search " + resource + " with raw search parameters",
		Long: fmt.Sprintf(`Call the %s search endpoint directly.

--sort takes the API form ("updatedOn:DESC"). --first-result selects an
offset instead of a page; the two cannot be combined.`, resource),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("page") && cmd.Flags().Changed("first-result") {
				return constants.ErrPageAndOffsetConflict
			}

			params, err := parseFilters(filters)
			if err != nil {
				return err
			}

			opts := &brightpearl.SearchOptions{
				Columns:  columns,
				Sort:     sort,
				PageSize: pageSize,
				Page:     page,
				Filters:  params,
			}

			if cmd.Flags().Changed("first-result") {
				opts.FirstResult = &firstResult
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			payload, err := source(client).Search(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to search %s: %w", resource, err)
			}

			return writeRecords(cmd.OutOrStdout(), brightpearl.ColumnNames(payload.Response()), brightpearl.Normalize(payload))
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to return")
	cmd.Flags().StringVar(&sort, "sort", "", `sort expression, e.g. "updatedOn:DESC"`)
	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "results per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&firstResult, "first-result", 0, "result offset, replaces --page")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "search filter as key=value (repeatable)")

	return cmd
}
