package colas

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/db"
)

const (
	testDetailURL = "https://registry.test/detail?ttbid="
	testFormURL   = "https://registry.test/form?ttbid="
	testImageURL  = "https://images.test/"

	idStone   = "20240101000001"
	idMargaux = "20240101000002"
	idBourbon = "20240101000003"
	idSake    = "20240101000004"
	idTequila = "20240101000005"
)

func ptr[T any](v T) *T { return &v }

func day(s string) *time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func testViews() ViewConfig {
	return ViewConfig{
		Rules:        classify.Default(),
		DetailURL:    testDetailURL,
		FormURL:      testFormURL,
		ImageBaseURL: testImageURL,
	}
}

// openTestDB returns an initialized in-memory SQLite database private to t.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := db.Open(db.Options{URL: "file:" + name + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Init(context.Background(), d, SetupOptions{Views: testViews()}))
	return d
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d := openTestDB(t)
	seedFixtures(t, d)
	return NewStore(d, StoreOptions{Views: testViews(), WindowDays: 14, CacheTTL: time.Minute})
}

// seedFixtures loads five COLAs:
//
//	stone    2024-03-01 beer, domestic, two images (one public), two violations
//	margaux  2024-02-20 wine, import, clean analysis
//	bourbon  2024-02-25 spirits, NULL origin and brand, unparseable analysis
//	sake     2023-12-01 wine, "N/A" origin, blank brand, mixed violations array
//	tequila  no date, spirits, import, violations is an object
func seedFixtures(t *testing.T, d *gorm.DB) {
	t.Helper()

	colas := []Cola{
		{ColaID: idStone, PermitNum: ptr("BR-CA-15001"), SerialNum: ptr("240001"), CompletedDate: day("2024-03-01"),
			BrandName: ptr("Stone Brewing"), FancifulName: ptr("Arrogant Bastard"), Origin: ptr("CALIFORNIA"),
			ClassType: ptr("ALE"), Status: ptr("APPROVED")},
		{ColaID: idMargaux, PermitNum: ptr("I-NY-2200"), CompletedDate: day("2024-02-20"),
			BrandName: ptr("Château Margaux"), Origin: ptr("FRANCE"), ClassType: ptr("TABLE RED WINE")},
		{ColaID: idBourbon, CompletedDate: day("2024-02-25"), ClassType: ptr("STRAIGHT BOURBON WHISKY")},
		{ColaID: idSake, CompletedDate: day("2023-12-01"), BrandName: ptr("  "), Origin: ptr("N/A"), ClassType: ptr("SAKE")},
		{ColaID: idTequila, BrandName: ptr("Casa_Azul"), Origin: ptr("MEXICO"), ClassType: ptr("TEQUILA")},
	}
	require.NoError(t, d.Create(&colas).Error)

	images := []ColaImage{
		{ColaID: idStone, FileName: "front.jpg", ImgType: ptr("Label Image: Brand (front)"), DimensionsTxt: ptr("3.5 x 4"),
			StorageKey: ptr("stone/front.jpg"), Width: ptr(800), Height: ptr(1000)},
		{ColaID: idStone, FileName: "back.jpg", ImgType: ptr("Label Image: Back")},
	}
	require.NoError(t, d.Create(&images).Error)

	imageAnalysis := ColaImageAnalysis{ColaID: idStone, FileName: "front.jpg", Model: ptr("vision-1"), Response: `{"ok":true}`}
	require.NoError(t, d.Create(&imageAnalysis).Error)

	items := []ImageAnalysisItem{
		{AnalysisID: imageAnalysis.AnalysisID, ColaID: idStone, FileName: "front.jpg", AnalysisItemType: ItemTextBlock,
			Text: ptr("GOVERNMENT WARNING: (1) ACCORDING TO THE SURGEON GENERAL"), ModelConfidence: ptr(0.91)},
		{AnalysisID: imageAnalysis.AnalysisID, ColaID: idStone, FileName: "front.jpg", AnalysisItemType: ItemTag,
			Text: ptr("beer"), ModelConfidence: ptr(0.97)},
	}
	require.NoError(t, d.Create(&items).Error)

	analyses := []ColaAnalysis{
		{ColaID: idStone, Model: ptr("review-1"), Response: `{"violations":[
			{"comment":"Health warning is not bold","type":"mandatory","group":"Health Warning","subgroup":"Format","cfr_ref":"27 CFR 16.22"},
			{"comment":"Alcohol content missing","group":"Alcohol Content"}]}`},
		{ColaID: idMargaux, Model: ptr("review-1"), Response: `{"violations":[]}`},
		{ColaID: idBourbon, Model: ptr("review-1"), Response: `not json`, Metadata: `{"batch":"batch_7"}`},
		{ColaID: idSake, Model: ptr("review-1"), Response: `{"violations":["bare string",{"comment":"Warning too small","group":"Health Warning"}]}`},
		{ColaID: idTequila, Model: ptr("review-1"), Response: `{"violations":{"not":"an array"}}`},
	}
	require.NoError(t, d.Create(&analyses).Error)
}
