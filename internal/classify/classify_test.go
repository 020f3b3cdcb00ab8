package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommodity(t *testing.T) {
	r := Default()
	cases := map[string]string{
		"TABLE RED WINE":                 Wine,
		"SPARKLING WINE/CHAMPAGNE":       Wine,
		"HARD CIDER":                     Wine,
		"MALT BEVERAGES SPECIALITIES":    Beer,
		"ALE":                            Beer,
		"PALE ALE/IPA":                   Beer,
		"STRAIGHT BOURBON WHISKY":        DistilledSpirits,
		"SINGLE MALT SCOTCH WHISKY":      DistilledSpirits,
		"CORDIALS & LIQUEURS - FRUIT":    DistilledSpirits,
		"DISTILLED SPIRITS SPECIALTY":    DistilledSpirits,
		"LONDON DRY GIN":                 DistilledSpirits,
		"OTHER SPECIALTIES & PROPRIETAR": Unknown,
		"":                               Unknown,
	}
	for classType, want := range cases {
		assert.Equal(t, want, r.Commodity(classType), classType)
	}
}

func TestCommodityWholeWordPatterns(t *testing.T) {
	r := Default()
	// "ale" must not match inside "pale" or "tale" alone.
	assert.Equal(t, Unknown, r.Commodity("TALES OF THE PALE"))
	// "gin" must not match inside "ginger" or "origin".
	assert.Equal(t, Unknown, r.Commodity("GINGER ORIGINAL"))
}

func TestSource(t *testing.T) {
	r := Default()
	cases := map[string]string{
		"CALIFORNIA":       Domestic,
		" new york ":       Domestic,
		"GEORGIA":          Domestic,
		"UNITED STATES":    Domestic,
		"AMERICAN":         Domestic,
		"DOMESTIC - OTHER": Domestic,
		"FRANCE":           Import,
		"New Zealand":      Import,
		"":                 UnknownSource,
		"N/A":              UnknownSource,
		"unknown":          UnknownSource,
	}
	for origin, want := range cases {
		assert.Equal(t, want, r.Source(origin), origin)
	}
}

func TestParseRejectsUnsafePatterns(t *testing.T) {
	_, err := Parse([]byte(`
commodities:
  - name: beer
    patterns: ["50% abv"]
`))
	require.ErrorIs(t, err, ErrUnsafePattern)

	_, err = Parse([]byte(`
commodities:
  - name: beer
    patterns: ["Beer"]
`))
	assert.Error(t, err, "patterns are lowercase")

	_, err = Parse([]byte(`commodities: []`))
	assert.Error(t, err)
}

func TestParseDefaultsUnknownCommodity(t *testing.T) {
	r, err := Parse([]byte(`
commodities:
  - name: cider
    patterns: ["cider"]
`))
	require.NoError(t, err)
	assert.Equal(t, Unknown, r.UnknownCommodity)
	assert.Equal(t, "cider", r.Commodity("Hard Cider"))
	assert.Equal(t, []string{"cider"}, r.CommodityNames())
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{Beer, Wine, DistilledSpirits}, r.CommodityNames())

	_, err = Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestCommodityExpr(t *testing.T) {
	expr := Default().CommodityExpr("c.class_type")
	assert.True(t, strings.HasPrefix(expr, "CASE"))
	assert.Contains(t, expr, "LOWER(COALESCE(c.class_type, ''))")
	assert.Contains(t, expr, "LIKE '% ale %'")
	assert.Contains(t, expr, "THEN 'distilled_spirits'")
	assert.Contains(t, expr, "ELSE 'unknown'")
	assert.Less(t, strings.Index(expr, "'beer'"), strings.Index(expr, "'wine'"), "rule order is preserved")
}

func TestSourceExpr(t *testing.T) {
	expr := Default().SourceExpr("c.origin")
	assert.Contains(t, expr, "LOWER(TRIM(COALESCE(c.origin, '')))")
	assert.Contains(t, expr, "'district of columbia'")
	assert.Contains(t, expr, "LIKE '%united states%' THEN 'domestic'")
	assert.Contains(t, expr, "IN ('unknown', 'n/a', 'none') THEN 'unknown'")
	assert.Contains(t, expr, "ELSE 'import'")
}
