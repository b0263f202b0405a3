package screener

import "github.com/finquery/screener-client/pkg/pagination"

// Kind is the asset class of a security, derived from the first two
// characters of its Universe field.
type Kind string

const (
	// KindStock is an equity (Universe prefix E0).
	KindStock Kind = "stock"

	// KindETF is an exchange traded fund (Universe prefix ET).
	KindETF Kind = "etf"

	// KindFund is an open fund (Universe prefix FO).
	KindFund Kind = "fund"

	// KindSecurity is anything the universe prefix does not identify.
	KindSecurity Kind = "security"
)

// Security wraps one screener record. Field access never fails; absent or
// non-string fields read as the empty string.
type Security struct {
	record pagination.Record
}

// NewSecurity wraps a raw screener record.
func NewSecurity(record pagination.Record) Security {
	return Security{record: record}
}

// Kind classifies the security by its Universe prefix.
func (s Security) Kind() Kind {
	universe := s.Field("Universe")
	if len(universe) < 2 {
		return KindSecurity
	}
	switch universe[:2] {
	case "E0":
		return KindStock
	case "ET":
		return KindETF
	case "FO":
		return KindFund
	default:
		return KindSecurity
	}
}

// Name returns the legal name.
func (s Security) Name() string { return s.Field("LegalName") }

// ISIN returns the ISIN, if the search requested it.
func (s Security) ISIN() string { return s.Field("ISIN") }

// SecID returns the screener security identifier.
func (s Security) SecID() string { return s.Field("SecId") }

// ShareClassID returns the fund share class identifier.
func (s Security) ShareClassID() string { return s.Field("fundShareClassId") }

// Exchange returns the exchange identifier the security is listed on.
func (s Security) Exchange() string { return s.Field("ExchangeId") }

// Universe returns the raw Universe field.
func (s Security) Universe() string { return s.Field("Universe") }

// Field returns the named data point as a string, or "" when absent or not
// a string.
func (s Security) Field(name string) string {
	v, ok := s.record[name]
	if !ok {
		return ""
	}
	str, ok := v.(string)
	if !ok {
		return ""
	}
	return str
}

// Record returns the underlying raw record.
func (s Security) Record() pagination.Record {
	return s.record
}
