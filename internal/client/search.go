package client

import (
	"context"
	"fmt"
	"iter"
	"maps"
	nethttp "net/http"
	"strings"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// SearchSpec describes one resource's search endpoint.
type SearchSpec struct {
	// Path of the search endpoint, relative to the account base URL.
	Path string
	// SortKey is the query key the endpoint reads the sort from.
	SortKey string
	// DefaultColumns is applied by List when the caller gives no columns.
	DefaultColumns []string
}

// searcher implements brightpearl.SearchClient for any resource described
// by a SearchSpec.
type searcher struct {
	requester  brightpearl.Requester
	normalizer brightpearl.SearchNormalizer
	spec       SearchSpec
}

func newSearcher(requester brightpearl.Requester, spec SearchSpec) *searcher {
	return &searcher{
		requester:  requester,
		normalizer: brightpearl.DefaultNormalizer{},
		spec:       spec,
	}
}

// Search issues a GET against the search endpoint. Search endpoints only
// read the query string.
func (s *searcher) Search(ctx context.Context, opts *brightpearl.SearchOptions) (brightpearl.Payload, error) {
	if opts == nil {
		opts = &brightpearl.SearchOptions{}
	}

	payload, err := s.requester.Request(ctx, nethttp.MethodGet, s.spec.Path, s.searchParams(opts), nil)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.spec.Path, err)
	}

	return payload, nil
}

func (s *searcher) searchParams(opts *brightpearl.SearchOptions) brightpearl.Params {
	params := brightpearl.Params{
		constants.QueryPageSize: pageSizeOrDefault(opts.PageSize),
	}

	if len(opts.Columns) > 0 {
		params[constants.QueryColumns] = strings.Join(opts.Columns, ",")
	}

	if opts.Sort != "" {
		params[s.spec.SortKey] = opts.Sort
	}

	if opts.FirstResult != nil {
		params[constants.QueryFirstResult] = *opts.FirstResult
	} else {
		params[constants.QueryPage] = max(opts.Page, 1)
	}

	maps.Copy(params, opts.Filters)

	return params
}

// List translates ListOptions into a Search call.
func (s *searcher) List(ctx context.Context, opts *brightpearl.ListOptions) (brightpearl.Payload, error) {
	return s.Search(ctx, s.searchOptions(listOptions(opts)))
}

// ListRecords returns one page of normalized records.
func (s *searcher) ListRecords(ctx context.Context, opts *brightpearl.ListOptions) ([]brightpearl.Record, error) {
	payload, err := s.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	return s.normalizer.Normalize(payload), nil
}

// IteratePages yields the response object of each page starting at
// opts.Page. It stops on an empty page, or after a page shorter than the
// page size.
func (s *searcher) IteratePages(ctx context.Context, opts *brightpearl.ListOptions) iter.Seq2[brightpearl.Payload, error] {
	base := listOptions(opts)

	return func(yield func(brightpearl.Payload, error) bool) {
		for page := base.Page; ; page++ {
			payload, err := s.List(ctx, withPage(base, page))
			if err != nil {
				yield(nil, err)

				return
			}

			response := payload.Response()

			results := response.Results()
			if len(results) == 0 {
				return
			}

			if !yield(response, nil) {
				return
			}

			if len(results) < base.PageSize {
				return
			}
		}
	}
}

// IterateRecords yields normalized records page by page. Termination is
// decided on the normalized record count of each page.
func (s *searcher) IterateRecords(ctx context.Context, opts *brightpearl.ListOptions) iter.Seq2[brightpearl.Record, error] {
	return func(yield func(brightpearl.Record, error) bool) {
		for records, err := range s.recordPages(ctx, opts) {
			if err != nil {
				yield(nil, err)

				return
			}

			for _, record := range records {
				if !yield(record, nil) {
					return
				}
			}
		}
	}
}

// CollectRecords drains the record pages into a slice. maxPages <= 0 reads
// every page. Records gathered before an error are returned with it.
func (s *searcher) CollectRecords(ctx context.Context, opts *brightpearl.ListOptions, maxPages int) ([]brightpearl.Record, error) {
	var (
		collected []brightpearl.Record
		pages     int
	)

	for records, err := range s.recordPages(ctx, opts) {
		if err != nil {
			return collected, err
		}

		collected = append(collected, records...)

		pages++
		if maxPages > 0 && pages >= maxPages {
			break
		}
	}

	return collected, nil
}

func (s *searcher) recordPages(ctx context.Context, opts *brightpearl.ListOptions) iter.Seq2[[]brightpearl.Record, error] {
	base := listOptions(opts)

	return func(yield func([]brightpearl.Record, error) bool) {
		for page := base.Page; ; page++ {
			payload, err := s.List(ctx, withPage(base, page))
			if err != nil {
				yield(nil, err)

				return
			}

			records := s.normalizer.Normalize(payload)
			if len(records) == 0 {
				return
			}

			if !yield(records, nil) {
				return
			}

			if len(records) < base.PageSize {
				return
			}
		}
	}
}

func (s *searcher) searchOptions(opts brightpearl.ListOptions) *brightpearl.SearchOptions {
	columns := opts.Columns
	if columns == nil {
		columns = s.spec.DefaultColumns
	}

	return &brightpearl.SearchOptions{
		Columns:  columns,
		Sort:     brightpearl.SortFromOrderBy(opts.OrderBy),
		PageSize: opts.PageSize,
		Page:     opts.Page,
		Filters:  opts.Filters,
	}
}

// listOptions returns a copy of opts with the page size and page defaulted.
func listOptions(opts *brightpearl.ListOptions) brightpearl.ListOptions {
	var out brightpearl.ListOptions
	if opts != nil {
		out = *opts
	}

	out.PageSize = pageSizeOrDefault(out.PageSize)
	out.Page = max(out.Page, 1)

	return out
}

func withPage(opts brightpearl.ListOptions, page int) *brightpearl.ListOptions {
	opts.Page = page

	return &opts
}

func pageSizeOrDefault(pageSize int) int {
	if pageSize <= 0 {
		return brightpearl.DefaultPageSize
	}

	return pageSize
}
