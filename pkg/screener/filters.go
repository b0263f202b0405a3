package screener

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Filter is one screener filter condition. The upstream encodes conditions
// as colon-separated segments joined with pipes, e.g.
// "SectorId:IN:310:311|PERatio:BTW:5:25|DividendYield:GT:2".
type Filter struct {
	op     string
	values []string
}

// In matches securities whose field equals any of the given values.
func In(values ...string) Filter {
	return Filter{op: "IN", values: values}
}

// Between matches securities whose field lies in [lo, hi].
func Between(lo, hi float64) Filter {
	return Filter{op: "BTW", values: []string{formatNumber(lo), formatNumber(hi)}}
}

// LessThan matches securities whose field is below v.
func LessThan(v float64) Filter {
	return Filter{op: "LT", values: []string{formatNumber(v)}}
}

// GreaterThan matches securities whose field is above v.
func GreaterThan(v float64) Filter {
	return Filter{op: "GT", values: []string{formatNumber(v)}}
}

// encode renders the condition for field name on the wire.
func (f Filter) encode(name string) string {
	return name + ":" + f.op + ":" + strings.Join(f.values, ":")
}

// encodeFilters validates every filter name against the valid set and
// returns the pipe-joined filter string. Names are emitted in sorted order
// so identical filter maps always produce identical request parameters.
func encodeFilters(filters map[string]Filter, valid map[string]struct{}, kind string) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		if _, ok := valid[name]; !ok {
			return "", fmt.Errorf("%q is not a valid %s filter", name, kind)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, filters[name].encode(name))
	}
	return strings.Join(parts, "|"), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
