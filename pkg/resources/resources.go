// Package resources is the catalog of WB marketplace endpoints exposed by the
// client. Every entry is plain action.Resource data.
package resources

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/Sternrassler/wb-api-client/pkg/action"
)

// ScopeMarketplace is the token scope of the marketplace API.
const ScopeMarketplace = "marketplace"

// Orders lists assembly orders, paginated.
var Orders = action.Resource{
	Name:      "orders",
	HelpText:  "Assembly orders, newest first, fetched page by page",
	Method:    http.MethodGet,
	Path:      "orders",
	Paginated: true,
	DataField: "orders",
	Scope:     ScopeMarketplace,
}

// NewOrders lists assembly orders awaiting acceptance.
var NewOrders = action.Resource{
	Name:      "new_orders",
	HelpText:  "Assembly orders awaiting acceptance",
	Method:    http.MethodGet,
	Path:      "orders/new",
	DataField: "orders",
	Scope:     ScopeMarketplace,
}

// Supplies lists supplies, paginated.
var Supplies = action.Resource{
	Name:      "supplies",
	HelpText:  "Seller supplies, fetched page by page",
	Method:    http.MethodGet,
	Path:      "supplies",
	Paginated: true,
	DataField: "supplies",
	Scope:     ScopeMarketplace,
}

// Warehouses lists the seller's warehouses.
var Warehouses = action.Resource{
	Name:     "warehouses",
	HelpText: "Seller warehouses",
	Method:   http.MethodGet,
	Path:     "warehouses",
	Scope:    ScopeMarketplace,
}

// Offices lists WB offices a seller warehouse can be linked to.
var Offices = action.Resource{
	Name:     "offices",
	HelpText: "WB offices available for seller warehouses",
	Method:   http.MethodGet,
	Path:     "offices",
	Scope:    ScopeMarketplace,
}

// Ping checks that the API is reachable with the configured key.
var Ping = action.Resource{
	Name:     "ping",
	HelpText: "Connectivity and token check",
	Method:   http.MethodGet,
	Path:     "ping",
}

var catalog = map[string]action.Resource{
	Ping.Name:       Ping,
	Orders.Name:     Orders,
	NewOrders.Name:  NewOrders,
	Supplies.Name:   Supplies,
	Warehouses.Name: Warehouses,
	Offices.Name:    Offices,
}

// Lookup returns the catalog resource with the given name.
func Lookup(name string) (action.Resource, bool) {
	r, ok := catalog[name]
	return r, ok
}

// All returns the catalog sorted by name.
func All() []action.Resource {
	out := make([]action.Resource, 0, len(catalog))
	for _, r := range catalog {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// OrdersBetween is Orders restricted to a creation period.
func OrdersBetween(from, to time.Time) action.Resource {
	r := Orders
	r.Query = url.Values{
		"dateFrom": {strconv.FormatInt(from.Unix(), 10)},
		"dateTo":   {strconv.FormatInt(to.Unix(), 10)},
	}
	return r
}

// OrderStatuses asks for the statuses of the given assembly orders.
func OrderStatuses(orderIDs []int64) action.Resource {
	return action.Resource{
		Name:      "order_statuses",
		HelpText:  "Statuses of assembly orders",
		Method:    http.MethodPost,
		Path:      "orders/status",
		DataField: "orders",
		Scope:     ScopeMarketplace,
		Body:      map[string]any{"orders": orderIDs},
	}
}

// SupplyOrders lists the assembly orders attached to a supply.
func SupplyOrders(supplyID string) action.Resource {
	return action.Resource{
		Name:      "supply_orders",
		HelpText:  "Assembly orders attached to supply " + supplyID,
		Method:    http.MethodGet,
		Path:      "supplies/" + url.PathEscape(supplyID) + "/orders",
		DataField: "orders",
		Scope:     ScopeMarketplace,
	}
}
