package classify

import "strings"

// CommodityExpr compiles the commodity rules to a CASE expression over the
// SQL expression classType. The expression only uses LOWER, COALESCE,
// REPLACE, LIKE and ||, so it runs unchanged on PostgreSQL and SQLite.
func (r *Rules) CommodityExpr(classType string) string {
	norm := "LOWER(COALESCE(" + classType + ", ''))"
	for _, p := range punctuation {
		norm = "REPLACE(" + norm + ", " + literal(p) + ", ' ')"
	}
	norm = "(' ' || " + norm + " || ' ')"

	var b strings.Builder
	b.WriteString("CASE")
	for _, rule := range r.Commodities {
		b.WriteString("\n    WHEN ")
		for i, p := range rule.Patterns {
			if i > 0 {
				b.WriteString(" OR ")
			}
			b.WriteString(norm + " LIKE " + literal("%"+p+"%"))
		}
		b.WriteString(" THEN " + literal(rule.Name))
	}
	b.WriteString("\n    ELSE " + literal(r.UnknownCommodity) + "\n  END")
	return b.String()
}

// SourceExpr compiles the origin rules to a CASE expression over the SQL
// expression origin.
func (r *Rules) SourceExpr(origin string) string {
	norm := "LOWER(TRIM(COALESCE(" + origin + ", '')))"

	var b strings.Builder
	b.WriteString("CASE")
	if len(r.Origin.DomesticExact) > 0 {
		b.WriteString("\n    WHEN " + norm + " IN (" + literalList(r.Origin.DomesticExact) + ") THEN " + literal(Domestic))
	}
	for _, p := range r.Origin.DomesticContains {
		b.WriteString("\n    WHEN " + norm + " LIKE " + literal("%"+p+"%") + " THEN " + literal(Domestic))
	}
	b.WriteString("\n    WHEN " + norm + " = ''")
	if len(r.Origin.UnknownValues) > 0 {
		b.WriteString(" OR " + norm + " IN (" + literalList(r.Origin.UnknownValues) + ")")
	}
	b.WriteString(" THEN " + literal(UnknownSource))
	b.WriteString("\n    ELSE " + literal(Import) + "\n  END")
	return b.String()
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literalList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = literal(v)
	}
	return strings.Join(quoted, ", ")
}
