package colas

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/schema"

	"github.com/EmpoweredVote/cola-explorer/internal/metrics"
)

// CommodityStat is one vw_cola_stats row.
type CommodityStat struct {
	CtCommodity         string `gorm:"column:ct_commodity" json:"ct_commodity"`
	CtSource            string `gorm:"column:ct_source" json:"ct_source"`
	ColaCount           int64  `json:"cola_count"`
	ImageCount          int64  `json:"image_count"`
	AnalyzedCount       int64  `json:"analyzed_count"`
	WithViolationsCount int64  `json:"with_violations_count"`
	FirstCompletedDate  Date   `json:"first_completed_date"`
	LastCompletedDate   Date   `json:"last_completed_date"`
}

func (CommodityStat) TableName(namer schema.Namer) string {
	return namer.TableName(viewStats)
}

// ViolationGroupStat is one vw_violation_group_stats row.
type ViolationGroupStat struct {
	ViolationGroup string `json:"violation_group"`
	ViolationCount int64  `json:"violation_count"`
	ColaCount      int64  `json:"cola_count"`
}

func (ViolationGroupStat) TableName(namer schema.Namer) string {
	return namer.TableName(viewViolationGroups)
}

// Stats summarizes the whole dataset.
type Stats struct {
	Commodities     []CommodityStat      `json:"commodities"`
	ViolationGroups []ViolationGroupStat `json:"violation_groups"`
}

// Stats reads both summary views.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	defer metrics.ObserveQuery("stats", start)

	st := &Stats{Commodities: []CommodityStat{}, ViolationGroups: []ViolationGroupStat{}}
	tx := s.db.WithContext(ctx)

	if err := tx.Order("ct_commodity").Order("ct_source").Find(&st.Commodities).Error; err != nil {
		return nil, fmt.Errorf("load cola stats: %w", err)
	}
	if err := tx.Order("violation_count DESC").Order("violation_group").Find(&st.ViolationGroups).Error; err != nil {
		return nil, fmt.Errorf("load violation group stats: %w", err)
	}
	return st, nil
}
