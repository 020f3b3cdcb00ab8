package colas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	s := newTestStore(t)
	st, err := s.Stats(context.Background())
	require.NoError(t, err)

	byKey := map[string]CommodityStat{}
	for _, row := range st.Commodities {
		byKey[row.CtCommodity+"/"+row.CtSource] = row
	}
	require.Len(t, byKey, 5)

	beer := byKey["beer/domestic"]
	assert.EqualValues(t, 1, beer.ColaCount)
	assert.EqualValues(t, 2, beer.ImageCount)
	assert.EqualValues(t, 1, beer.AnalyzedCount)
	assert.EqualValues(t, 1, beer.WithViolationsCount)
	assert.Equal(t, "2024-03-01", beer.FirstCompletedDate.String())

	tequila := byKey["distilled_spirits/import"]
	assert.False(t, tequila.FirstCompletedDate.Valid)

	require.Len(t, st.ViolationGroups, 2)
	assert.Equal(t, ViolationGroupStat{ViolationGroup: "Health Warning", ViolationCount: 2, ColaCount: 2}, st.ViolationGroups[0])
	assert.Equal(t, ViolationGroupStat{ViolationGroup: "Alcohol Content", ViolationCount: 1, ColaCount: 1}, st.ViolationGroups[1])
}
