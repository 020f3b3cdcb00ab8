package colas

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOptions(t *testing.T) {
	s := newTestStore(t)
	o, err := s.Options(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"CALIFORNIA", "FRANCE", "MEXICO", "N/A", "UNKNOWN"}, o.Origins)
	assert.Equal(t, []string{"ALE", "SAKE", "STRAIGHT BOURBON WHISKY", "TABLE RED WINE", "TEQUILA"}, o.ClassTypes)
	assert.Equal(t, []string{"Casa_Azul", "Château Margaux", "Stone Brewing", "UNKNOWN"}, o.Brands)
	assert.Equal(t, []string{"Alcohol Content", "Health Warning"}, o.ViolationGroups)

	require.Len(t, o.Commodities, 3)
	assert.Equal(t, CommodityOption{Value: "wine", Label: "Wine", Icon: "🍷", Color: "#DD35DD"}, o.Commodities[0])
	assert.Equal(t, "beer", o.Commodities[1].Value)
	assert.Equal(t, "Distilled Spirits", o.Commodities[2].Label)

	assert.Equal(t, "2023-12-01", o.Bounds.Start.String())
	assert.Equal(t, "2024-03-01", o.Bounds.End.String())
	assert.Equal(t, "2024-02-16", o.DefaultWindow.Start.String())
}

func TestOptionsAreCachedUntilPurged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Options(ctx)
	require.NoError(t, err)
	second, err := s.Options(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, s.DB().Create(&Cola{ColaID: "20240101000099", Origin: ptr("JAPAN")}).Error)
	s.PurgeCache()

	third, err := s.Options(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Contains(t, third.Origins, "JAPAN")
}

func TestOptionsWithoutCache(t *testing.T) {
	d := openTestDB(t)
	s := NewStore(d, StoreOptions{Views: testViews()})

	o, err := s.Options(context.Background())
	require.NoError(t, err)
	assert.Empty(t, o.Origins)
	assert.NotNil(t, o.Origins)
	assert.Empty(t, o.Commodities)
	assert.False(t, o.Bounds.Valid())
}

func TestRefreshViewsPurgesCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Options(ctx)
	require.NoError(t, err)
	require.NoError(t, s.RefreshViews(ctx))

	second, err := s.Options(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Origins, second.Origins)
}

func TestOptionsLoadSurvivesCancelledCaller(t *testing.T) {
	s := newTestStore(t)

	started := make(chan struct{}, 16)
	release := make(chan struct{})
	require.NoError(t, s.DB().Callback().Row().Before("gorm:row").Register("test:hold_rows", func(*gorm.DB) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}))

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := s.Options(ctx1)
		first <- err
	}()
	<-started

	second := make(chan error, 1)
	go func() {
		_, err := s.Options(context.Background())
		second <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel1()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	require.NoError(t, <-second)

	o, ok := s.options.Get(optionsKey)
	require.True(t, ok, "shared load should fill the cache")
	assert.Contains(t, o.Origins, "FRANCE")
}

func TestOptionsSkipBlankValues(t *testing.T) {
	s := newTestStore(t)
	d := s.DB()

	require.NoError(t, d.Create(&Cola{ColaID: "20240101000098", Origin: ptr("  "), ClassType: ptr("")}).Error)
	require.NoError(t, d.Create(&ColaAnalysis{ColaID: "20240101000098",
		Response: `{"violations":[{"comment":"Blank group","group":"  "}]}`}).Error)

	o, err := s.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CALIFORNIA", "FRANCE", "MEXICO", "N/A", "UNKNOWN"}, o.Origins)
	assert.NotContains(t, o.ClassTypes, "")
	assert.Equal(t, []string{"Alcohol Content", "Health Warning"}, o.ViolationGroups)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	for _, g := range st.ViolationGroups {
		assert.NotEqual(t, "  ", g.ViolationGroup)
	}
}
