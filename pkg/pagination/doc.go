// Package pagination fetches every page of a cursor-paginated WB resource and
// deep-merges them into one result.
//
// WB paginated endpoints take "limit" and "next" query parameters and return
// an object with an integer "next" field naming the cursor of the following
// page. Pages depend on the cursor of the previous page, so they are fetched
// strictly one after another.
//
// Example usage:
//
//	acc := pagination.NewAccumulator("orders", func(ctx context.Context, page int) (map[string]any, error) {
//		return fetchOrdersPage(ctx, pagination.QueryParams(page))
//	})
//	result, lastPage, err := acc.Run(ctx, 1)
//
// The accumulator:
//   - Removes "next" from every page before merging it
//   - Advances only when "next" is strictly greater than the requested page
//   - Stops on an absent, zero, equal or decreasing cursor
//   - Aborts on the first failed page and discards partial results
//
// Merge policy: objects merge key by key recursively, arrays are concatenated
// in request order, every other collision keeps the later page's value.
package pagination
