package seeds

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/colas"
	"github.com/EmpoweredVote/cola-explorer/internal/db"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := db.Open(db.Options{URL: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, colas.Init(context.Background(), d, colas.SetupOptions{
		Views: colas.ViewConfig{Rules: classify.Default(), ImageBaseURL: "https://images.test/"},
	}))
	return d
}

func TestSampleParses(t *testing.T) {
	rows, err := Sample()
	require.NoError(t, err)

	n := rows.Counts()
	assert.Equal(t, 5, n.Colas)
	assert.Equal(t, 2, n.Images)
	assert.Equal(t, 1, n.ImageAnalyses)
	assert.Equal(t, 3, n.Items)
	assert.Equal(t, 4, n.ColaAnalyses)

	require.NotNil(t, rows.Colas[0].CompletedDate)
	assert.Equal(t, "2024-06-03", rows.Colas[0].CompletedDate.Format(colas.DateLayout))
	assert.Equal(t, ImageAnalysisID("24001001000101", "front.jpg"), rows.Items[0].AnalysisID)
}

func TestIDsAreDeterministic(t *testing.T) {
	a, err := Sample()
	require.NoError(t, err)
	b, err := Sample()
	require.NoError(t, err)

	assert.Equal(t, a.ColaAnalyses[0].AnalysisID, b.ColaAnalyses[0].AnalysisID)
	assert.NotEqual(t, ColaAnalysisID("24001001000101", 0), ColaAnalysisID("24001001000101", 1))
}

func TestParseRejectsBadRows(t *testing.T) {
	_, err := Parse([]byte("colas:\n  - cola_id: \"123\"\n"))
	assert.ErrorIs(t, err, colas.ErrInvalidColaID)

	_, err = Parse([]byte("colas:\n  - cola_id: \"24001001000101\"\n    completed_date: \"June 3\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("colas: [unclosed"))
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	d := openDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, d, nil)
	require.NoError(t, err)
	n, err := Seed(ctx, d, nil)
	require.NoError(t, err)

	var count int64
	require.NoError(t, d.Model(&colas.Cola{}).Count(&count).Error)
	assert.EqualValues(t, n.Colas, count)
	require.NoError(t, d.Model(&colas.ImageAnalysisItem{}).Count(&count).Error)
	assert.EqualValues(t, n.Items, count)

	store := colas.NewStore(d, colas.StoreOptions{Views: colas.ViewConfig{Rules: classify.Default()}})
	f, err := colas.ParseFilters(url.Values{"search": {"Hollow Oak"}, "all_dates": {"1"}}, colas.MaxLimit)
	require.NoError(t, err)
	res, err := store.Search(ctx, f)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)

	rec := res.Records[0]
	assert.Equal(t, "beer", rec.CtCommodity)
	assert.Equal(t, "domestic", rec.CtSource)
	require.Len(t, rec.Images, 1)
	assert.Len(t, rec.Images[0].Items, 3)
	require.Len(t, rec.Violations, 1)
	assert.Equal(t, "Health Warning", *rec.Violations[0].ViolationGroup)
}
