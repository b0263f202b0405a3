// Package pagination assembles complete result sets from the screener's
// paginated endpoints.
//
// The upstream returns one envelope per page:
//
//	{ "rows": [...], "total": <int>, "pageSize": <int> }
//
// Pages are fetched strictly sequentially with an incrementing 1-based page
// parameter. Pagination ends on the first empty page, or earlier when the
// reported total and page size prove the current page is the last one. The
// upstream reports totals inconsistently across pages, so the empty-page
// sentinel is the primary termination signal and a zero or absent total is
// never used to compute a page count.
//
// Example usage:
//
//	collector := pagination.New(execClient, pagination.DefaultConfig())
//	records, err := collector.CollectAll(ctx, client.RequestSpec{
//	    URL:    screenerURL,
//	    Params: params,
//	})
//
// A collection call either returns the full accumulated record list or fails
// with one typed error; partial results are never returned.
package pagination
