package colas

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/db"
)

func TestInitIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, Init(context.Background(), d, SetupOptions{Views: testViews()}))

	for _, view := range viewOrder {
		var n int64
		require.NoError(t, d.Table(view).Count(&n).Error, view)
		assert.Zero(t, n, view)
	}
}

func TestViewStatementsDropInReverseOrder(t *testing.T) {
	d := openTestDB(t)
	stmts := newViewBuilder(d, testViews()).statements()
	require.Len(t, stmts, 2*len(viewOrder))
	assert.Equal(t, "DROP VIEW IF EXISTS vw_violation_group_stats", stmts[0])
	assert.Equal(t, "DROP VIEW IF EXISTS vw_colas", stmts[len(viewOrder)-1])
	assert.Contains(t, stmts[len(viewOrder)], "CREATE VIEW vw_colas AS")
}

func TestColaViewClassifiesAndCounts(t *testing.T) {
	s := newTestStore(t)

	var rows []Record
	require.NoError(t, s.DB().Order("cola_id").Find(&rows).Error)
	require.Len(t, rows, 5)

	type want struct {
		commodity, source      string
		analyses, flagged, img int64
	}
	expected := map[string]want{
		idStone:   {classify.Beer, classify.Domestic, 1, 1, 2},
		idMargaux: {classify.Wine, classify.Import, 1, 0, 0},
		idBourbon: {classify.DistilledSpirits, classify.UnknownSource, 1, 0, 0},
		idSake:    {classify.Wine, classify.UnknownSource, 1, 1, 0},
		idTequila: {classify.DistilledSpirits, classify.Import, 1, 0, 0},
	}
	for _, r := range rows {
		w := expected[r.ColaID]
		assert.Equal(t, w.commodity, r.CtCommodity, r.ColaID)
		assert.Equal(t, w.source, r.CtSource, r.ColaID)
		assert.Equal(t, w.analyses, r.ColaAnalysisCount, r.ColaID)
		assert.Equal(t, w.flagged, r.ColaAnalysisWithViolationsCount, r.ColaID)
		assert.Equal(t, w.img, r.ImageCount, r.ColaID)

		require.NotNil(t, r.ColaDetailsURL)
		assert.Equal(t, testDetailURL+r.ColaID, *r.ColaDetailsURL)
		require.NotNil(t, r.ColaFormURL)
		assert.Equal(t, testFormURL+r.ColaID, *r.ColaFormURL)
		assert.Nil(t, r.ColaInternalURL)
	}
}

func TestColaViewMatchesGoRules(t *testing.T) {
	d := openTestDB(t)
	rules := classify.Default()

	classTypes := []string{
		"ALE", "PALE ALE/IPA", "MALT BEVERAGES SPECIALITIES", "STOUT", "TABLE RED WINE",
		"SPARKLING WINE/CHAMPAGNE", "HARD CIDER", "DESSERT /PORT/SHERRY/(COOKING) WINE",
		"STRAIGHT BOURBON WHISKY", "VODKA - FLAVORED", "LONDON DRY GIN", "RUM SPECIALTIES",
		"CORDIALS & LIQUEURS - FRUIT", "TEQUILA FB", "GINGER SODA", "OTHER", "",
	}
	origins := []string{
		"CALIFORNIA", " new york ", "UNITED STATES", "AMERICAN", "FRANCE", "ITALY",
		"N/A", "none", "", "DOMESTIC", "PUERTO RICO",
	}

	var rows []Cola
	for i := 0; i < len(classTypes) || i < len(origins); i++ {
		c := Cola{ColaID: fmt.Sprintf("%014d", i+1)}
		if i < len(classTypes) {
			c.ClassType = ptr(classTypes[i])
		}
		if i < len(origins) {
			c.Origin = ptr(origins[i])
		}
		rows = append(rows, c)
	}
	require.NoError(t, d.Create(&rows).Error)

	var got []Record
	require.NoError(t, d.Order("cola_id").Find(&got).Error)
	require.Len(t, got, len(rows))
	for i, r := range got {
		classType, origin := "", ""
		if rows[i].ClassType != nil {
			classType = *rows[i].ClassType
		}
		if rows[i].Origin != nil {
			origin = *rows[i].Origin
		}
		assert.Equal(t, rules.Commodity(classType), r.CtCommodity, "class type %q", classType)
		assert.Equal(t, rules.Source(origin), r.CtSource, "origin %q", origin)
	}
}

func TestImageView(t *testing.T) {
	s := newTestStore(t)

	var images []Image
	require.NoError(t, s.DB().Order("file_name").Find(&images).Error)
	require.Len(t, images, 2)

	back, front := images[0], images[1]
	assert.Equal(t, "back.jpg", back.FileName)
	assert.Nil(t, back.PublicURL)
	assert.Zero(t, back.AnalysisItemCount)

	require.NotNil(t, front.PublicURL)
	assert.Equal(t, testImageURL+"stone/front.jpg", *front.PublicURL)
	assert.EqualValues(t, 2, front.AnalysisItemCount)
}

func TestViolationsView(t *testing.T) {
	s := newTestStore(t)

	var rows []Violation
	require.NoError(t, s.DB().Order("cola_id").Order("violation_index").Find(&rows).Error)
	require.Len(t, rows, 4, "clean, unparseable and non-array responses contribute nothing")

	stone := rows[:2]
	assert.Equal(t, idStone, stone[0].ColaID)
	assert.EqualValues(t, 0, stone[0].ViolationIndex)
	assert.Equal(t, "Health warning is not bold", *stone[0].ViolationComment)
	assert.Equal(t, "mandatory", *stone[0].ViolationType)
	assert.Equal(t, "Health Warning", *stone[0].ViolationGroup)
	assert.Equal(t, "Format", *stone[0].ViolationSubgroup)
	assert.Equal(t, "27 CFR 16.22", *stone[0].CfrRef)
	assert.EqualValues(t, 1, stone[1].ViolationIndex)
	assert.Nil(t, stone[1].ViolationType)
	assert.Equal(t, "Alcohol Content", *stone[1].ViolationGroup)

	sake := rows[2:]
	assert.Equal(t, idSake, sake[0].ColaID)
	assert.EqualValues(t, 0, sake[0].ViolationIndex)
	assert.Nil(t, sake[0].ViolationComment, "non-object elements yield NULL fields")
	assert.Nil(t, sake[0].ViolationGroup)
	assert.EqualValues(t, 1, sake[1].ViolationIndex)
	assert.Equal(t, "Warning too small", *sake[1].ViolationComment)
}

func TestInternalURLColumn(t *testing.T) {
	d := openTestDB(t)
	cfg := testViews()
	cfg.InternalURL = "https://internal.test/colas/"
	require.NoError(t, CreateViews(context.Background(), d, cfg))
	require.NoError(t, d.Create(&Cola{ColaID: idStone}).Error)

	var r Record
	require.NoError(t, d.First(&r, "cola_id = ?", idStone).Error)
	require.NotNil(t, r.ColaInternalURL)
	assert.Equal(t, "https://internal.test/colas/"+idStone, *r.ColaInternalURL)
}

func postgresStatements(t *testing.T) map[string]string {
	t.Helper()
	b := dialectViewBuilder(db.Postgres, func(name string) string { return "cola_images." + name }, testViews())
	stmts := b.statements()
	require.Len(t, stmts, 2*len(viewOrder))

	out := make(map[string]string, len(viewOrder))
	for i, name := range viewOrder {
		out[name] = stmts[len(viewOrder)+i]
	}
	assert.Equal(t, "DROP VIEW IF EXISTS cola_images.vw_violation_group_stats", stmts[0])
	return out
}

func TestPostgresViolationCount(t *testing.T) {
	ddl := postgresStatements(t)[viewColas]

	assert.Contains(t, ddl, "CREATE VIEW cola_images.vw_colas AS")
	assert.Contains(t, ddl, "FROM cola_images.colas c")
	assert.Contains(t, ddl, "FROM cola_images.cola_analysis\n")
	assert.Contains(t, ddl, "FROM cola_images.cola_images\n")
	assert.Contains(t, ddl,
		"(CASE WHEN jsonb_typeof(response->'violations') = 'array' THEN jsonb_array_length(response->'violations') ELSE 0 END) > 0")
	assert.NotContains(t, ddl, "json_valid")
}

func TestPostgresViolationsUnnest(t *testing.T) {
	ddl := postgresStatements(t)[viewViolations]

	assert.Contains(t, ddl, "CREATE VIEW cola_images.vw_cola_violations_list AS")
	assert.Contains(t, ddl, "FROM cola_images.cola_analysis ca")
	assert.Contains(t, ddl, "CROSS JOIN LATERAL jsonb_array_elements(")
	assert.Contains(t, ddl, "CASE WHEN jsonb_typeof(ca.response->'violations') = 'array'")
	assert.Contains(t, ddl, "ELSE '[]'::jsonb END")
	assert.Contains(t, ddl, ") WITH ORDINALITY AS v(item, ord)")
	assert.Contains(t, ddl, "v.ord - 1 AS violation_index")
	for _, f := range violationFields {
		assert.Contains(t, ddl, fmt.Sprintf("v.item->>'%s' AS %s", f.key, f.column))
	}
	assert.NotContains(t, ddl, "json_each")
}

func TestPostgresStatsViewsAreQualified(t *testing.T) {
	ddl := postgresStatements(t)

	assert.Contains(t, ddl[viewImages], "FROM cola_images.cola_images i")
	assert.Contains(t, ddl[viewImages], "FROM cola_images.image_analysis_items")
	assert.Contains(t, ddl[viewStats], "FROM cola_images.vw_colas c")
	assert.Contains(t, ddl[viewViolationGroups], "FROM cola_images.vw_cola_violations_list v")
	assert.Contains(t, ddl[viewViolationGroups], "TRIM(v.violation_group) <> ''")
}
