package classify

import (
	"slices"
	"strings"
)

// NormalizeClassType prepares a class type for pattern matching.
// CommodityExpr builds the same transformation in SQL.
func NormalizeClassType(classType string) string {
	s := strings.ToLower(classType)
	for _, p := range punctuation {
		s = strings.ReplaceAll(s, p, " ")
	}
	return " " + s + " "
}

// NormalizeOrigin lowercases and trims spaces the way SQL TRIM does.
func NormalizeOrigin(origin string) string {
	return strings.Trim(strings.ToLower(origin), " ")
}

// Commodity returns the first commodity whose pattern occurs in the
// normalized class type, or the unknown commodity.
func (r *Rules) Commodity(classType string) string {
	norm := NormalizeClassType(classType)
	for _, rule := range r.Commodities {
		for _, p := range rule.Patterns {
			if strings.Contains(norm, p) {
				return rule.Name
			}
		}
	}
	return r.UnknownCommodity
}

// Source classifies an origin as domestic, import or unknown.
func (r *Rules) Source(origin string) string {
	o := NormalizeOrigin(origin)
	if slices.Contains(r.Origin.DomesticExact, o) {
		return Domestic
	}
	for _, p := range r.Origin.DomesticContains {
		if strings.Contains(o, p) {
			return Domestic
		}
	}
	if o == "" || slices.Contains(r.Origin.UnknownValues, o) {
		return UnknownSource
	}
	return Import
}

// CommodityNames lists the commodities in rule order.
func (r *Rules) CommodityNames() []string {
	names := make([]string, 0, len(r.Commodities))
	for _, c := range r.Commodities {
		names = append(names, c.Name)
	}
	return names
}
