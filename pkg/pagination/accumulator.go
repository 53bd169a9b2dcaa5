package pagination

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/wb-api-client/pkg/logging"
	"github.com/Sternrassler/wb-api-client/pkg/metrics"
	"github.com/rs/zerolog"
)

// PageSize is the number of items requested per page.
const PageSize = 100

// CursorField is the response field carrying the next page cursor.
const CursorField = "next"

// PageFunc performs the request for one page and returns its decoded body.
type PageFunc func(ctx context.Context, page int) (map[string]any, error)

// QueryParams returns the pagination query parameters for page.
func QueryParams(page int) url.Values {
	return url.Values{
		"limit":     {strconv.Itoa(PageSize)},
		CursorField: {strconv.Itoa(page)},
	}
}

// Accumulator fetches and merges all pages of one resource.
type Accumulator struct {
	name   string
	fetch  PageFunc
	logger zerolog.Logger
}

// NewAccumulator creates an accumulator. name labels logs and metrics.
func NewAccumulator(name string, fetch PageFunc) *Accumulator {
	return &Accumulator{
		name:   name,
		fetch:  fetch,
		logger: logging.NewLogger("pagination").With().Str("service", name).Logger(),
	}
}

// Run fetches pages starting at start until the cursor stops advancing and
// returns the merged result together with the last page requested.
// A start of 0 performs no request and returns an empty result.
func (a *Accumulator) Run(ctx context.Context, start int) (map[string]any, int, error) {
	began := time.Now()
	result := map[string]any{}
	page := start
	pages := 0

	for page != 0 {
		if err := ctx.Err(); err != nil {
			return nil, page, err
		}

		body, err := a.fetch(ctx, page)
		if err != nil {
			a.logger.Warn().
				Err(err).
				Int("page", page).
				Int("pages_merged", pages).
				Msg("Page fetch failed - discarding partial result")
			return nil, page, err
		}

		next := Cursor(body[CursorField])
		delete(body, CursorField)
		result = Merge(result, body)
		pages++
		metrics.PagesFetched.WithLabelValues(a.name).Inc()

		a.logger.Debug().
			Int("page", page).
			Int("next", next).
			Msg("Page merged")

		if next <= page {
			if next != 0 {
				metrics.StaleCursors.WithLabelValues(a.name).Inc()
				a.logger.Warn().
					Int("page", page).
					Int("next", next).
					Msg("Cursor did not advance - stopping")
			}
			break
		}
		page = next
	}

	a.logger.Debug().
		Int("pages", pages).
		Int("last_page", page).
		Dur("duration", time.Since(began)).
		Msg("Accumulation complete")

	return result, page, nil
}

// Cursor converts a decoded "next" value into a page number. Missing,
// non-numeric and non-integral values yield 0.
func Cursor(v any) int {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return floatCursor(f)
		}
	case float64:
		return floatCursor(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}

func floatCursor(f float64) int {
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0
	}
	return int(f)
}
