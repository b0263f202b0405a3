package screener

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/finquery/screener-client/pkg/client"
)

// SecurityType narrows a search to one asset class. Filters are only
// supported for stock and fund searches.
type SecurityType string

const (
	// TypeAny searches every universe.
	TypeAny SecurityType = ""

	// TypeStock searches equities.
	TypeStock SecurityType = "stock"

	// TypeFund searches open funds and ETFs.
	TypeFund SecurityType = "fund"
)

// SearchQuery describes one screener search.
type SearchQuery struct {
	// Term is the text to match: a name, part of a name, or an ISIN.
	Term string

	// Fields is the security data point list. Defaults to DefaultFields.
	Fields []string

	// SecurityType optionally narrows the search to stocks or funds.
	SecurityType SecurityType

	// Exchange keeps only securities listed on the given exchange
	// (ISO 10383 code). Applied client-side after collection.
	Exchange string

	// UniverseIDs optionally restricts the searched universes.
	UniverseIDs string

	// CurrencyID optionally sets the reporting currency.
	CurrencyID string

	// PageSize is the number of rows per page. Defaults to 10.
	PageSize int

	// Filters holds filter conditions keyed by filter name. Names are
	// validated against StockFilters or FundFilters per SecurityType.
	Filters map[string]Filter
}

// params builds the ordered query parameter list for the screener endpoint.
// The page parameter is a placeholder; the collector overwrites it for every
// page. All validation happens here, before the first request goes out.
func (q SearchQuery) params() (client.Params, error) {
	if q.Term == "" {
		return nil, fmt.Errorf("search term is required")
	}

	pageSize := q.PageSize
	if pageSize == 0 {
		pageSize = 10
	}
	if pageSize < 0 {
		return nil, fmt.Errorf("pageSize must be positive (got %d)", pageSize)
	}

	fields := q.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}

	filters := ""
	switch q.SecurityType {
	case TypeStock:
		var err error
		if filters, err = encodeFilters(q.Filters, validFilterSet(StockFilters), "stock"); err != nil {
			return nil, err
		}
	case TypeFund:
		var err error
		if filters, err = encodeFilters(q.Filters, validFilterSet(FundFilters), "fund"); err != nil {
			return nil, err
		}
	case TypeAny:
		if len(q.Filters) > 0 {
			return nil, fmt.Errorf("filters require a security type of stock or fund")
		}
	default:
		return nil, fmt.Errorf("unknown security type %q", q.SecurityType)
	}

	params := client.NewParams(
		"page", "1",
		"pageSize", strconv.Itoa(pageSize),
		"sortOrder", "LegalName asc",
		"outputType", "json",
		"version", "1",
		"securityDataPoints", strings.Join(fields, "|"),
		"term", q.Term,
		"filters", filters,
	)

	if q.UniverseIDs != "" {
		params.Set("universeIds", q.UniverseIDs)
	}
	if q.CurrencyID != "" {
		params.Set("currencyId", q.CurrencyID)
	}

	return params, nil
}
