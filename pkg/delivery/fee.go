// Package delivery resolves the flat delivery fee for a customer's city.
package delivery

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultFee applies to every city outside the zone table, including an empty one.
var DefaultFee = decimal.NewFromInt(20)

// zones maps a normalized city name to its flat fee.
var zones = map[string]decimal.Decimal{
	"danbury":       decimal.NewFromInt(5),
	"brookfield":    decimal.NewFromInt(10),
	"new milford":   decimal.NewFromInt(15),
	"newtown":       decimal.NewFromInt(12),
	"bethel":        decimal.NewFromInt(8),
	"ridgefield":    decimal.NewFromInt(12),
	"new fairfield": decimal.NewFromInt(18),
	"sherman":       decimal.NewFromInt(20),
	"roxbury":       decimal.NewFromInt(20),
	"bridgewater":   decimal.NewFromInt(20),
}

// Fee returns the delivery fee for city. The ZIP code is part of the
// signature but the city alone picks the zone.
func Fee(city, zipCode string) decimal.Decimal {
	if fee, ok := zones[normalize(city)]; ok {
		return fee
	}
	return DefaultFee
}

// Zone is one row of the fee table as shown to customers.
type Zone struct {
	City string          `json:"city"`
	Fee  decimal.Decimal `json:"fee"`
}

// Zones returns a copy of the fee table sorted by fee, then city.
func Zones() []Zone {
	out := make([]Zone, 0, len(zones))
	for city, fee := range zones {
		out = append(out, Zone{City: city, Fee: fee})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Fee.Cmp(out[j].Fee); c != 0 {
			return c < 0
		}
		return out[i].City < out[j].City
	})
	return out
}

func normalize(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
