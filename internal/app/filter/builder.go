// Package filter turns raw, untrusted listing query parameters into a
// validated predicate over products.
package filter

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Kind enumerates the filters a listing understands.
type Kind int

const (
	KindPriceGTE Kind = iota + 1
	KindPriceLTE
	KindDiscounted
	KindColor
	KindSize
)

var kindsByParam = map[string]Kind{
	"price_gte":  KindPriceGTE,
	"price_lte":  KindPriceLTE,
	"disc_price": KindDiscounted,
	"color":      KindColor,
	"size":       KindSize,
}

// ParseKind maps a query parameter name to its filter kind.
func ParseKind(param string) (Kind, bool) {
	k, ok := kindsByParam[param]
	return k, ok
}

func (k Kind) String() string {
	for name, kind := range kindsByParam {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// constructor builds the predicate of one kind from validated values. A
// false result means the values are valid but ask for no constraint.
type constructor func(values []int64) (Predicate, bool)

var constructors = map[Kind]constructor{
	KindPriceGTE: func(v []int64) (Predicate, bool) {
		return EffectivePriceAtLeast{Value: v[0]}, true
	},
	KindPriceLTE: func(v []int64) (Predicate, bool) {
		return EffectivePriceAtMost{Value: v[0]}, true
	},
	KindDiscounted: func(v []int64) (Predicate, bool) {
		if v[0] != 1 {
			return nil, false
		}
		return Discounted{}, true
	},
	KindColor: func(v []int64) (Predicate, bool) {
		return ColorIn{IDs: v}, true
	},
	KindSize: func(v []int64) (Predicate, bool) {
		return InStockSizes{IDs: v}, true
	},
}

// Build returns the AND of every recognised, valid parameter in params.
// Unknown names are ignored; a parameter whose value list is empty or has
// any non-integer element contributes nothing. Size values must already
// be size ids, label translation belongs to the caller.
func Build(params map[string][]string) Predicate {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	result := All()
	for _, name := range names {
		kind, ok := ParseKind(name)
		if !ok {
			continue
		}
		values, ok := parseIntegers(params[name])
		if !ok {
			continue
		}
		if pred, ok := constructors[kind](values); ok {
			result = append(result, pred)
		}
	}
	return result
}

// parseIntegers is all-or-nothing: one bad element rejects the list.
// Integers outside int64 saturate to the nearest bound, so an oversized
// price_gte still applies and matches nothing.
func parseIntegers(raw []string) ([]int64, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	values := make([]int64, 0, len(raw))
	for _, s := range raw {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, false
		}
		values = append(values, n)
	}
	return values, true
}
