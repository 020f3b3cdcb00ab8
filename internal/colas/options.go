package colas

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/metrics"
)

// CommodityOption is one entry of the commodity filter.
type CommodityOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Options lists the values each filter can take.
type Options struct {
	Origins         []string          `json:"origins"`
	ClassTypes      []string          `json:"class_types"`
	Brands          []string          `json:"brands"`
	ViolationGroups []string          `json:"violation_groups"`
	Commodities     []CommodityOption `json:"commodities"`
	Bounds          DateRange         `json:"date_bounds"`
	DefaultWindow   DateRange         `json:"default_window"`
}

const optionsKey = "options"

// optionsLoadTimeout bounds a shared options load, which outlives the
// caller that started it.
const optionsLoadTimeout = 30 * time.Second

// Options returns the filter options, from cache when possible. Concurrent
// misses share one load; each caller stops waiting when its own ctx is done.
func (s *Store) Options(ctx context.Context) (*Options, error) {
	if s.options != nil {
		if o, ok := s.options.Get(optionsKey); ok {
			metrics.OptionsCache.WithLabelValues("hit").Inc()
			return o, nil
		}
		metrics.OptionsCache.WithLabelValues("miss").Inc()
	}

	ch := s.loads.DoChan(optionsKey, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), optionsLoadTimeout)
		defer cancel()

		o, err := s.loadOptions(lctx)
		if err != nil {
			return nil, err
		}
		if s.options != nil {
			s.options.Add(optionsKey, o)
		}
		return o, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Options), nil
	}
}

func (s *Store) loadOptions(ctx context.Context) (*Options, error) {
	o := &Options{}
	var commodities []string

	g, gctx := errgroup.WithContext(ctx)
	distinct := func(name, query string, dst *[]string) {
		g.Go(func() error {
			start := time.Now()
			defer metrics.ObserveQuery("options_"+name, start)

			var out []string
			if err := s.db.WithContext(gctx).Raw(query).Scan(&out).Error; err != nil {
				return fmt.Errorf("load %s options: %w", name, err)
			}
			slices.Sort(out)
			*dst = slices.Compact(out)
			return nil
		})
	}

	colas := s.table(viewColas)
	distinct("origins", "SELECT DISTINCT COALESCE(origin, 'UNKNOWN') AS v FROM "+colas+
		" WHERE origin IS NULL OR TRIM(origin) <> ''", &o.Origins)
	distinct("class_types", "SELECT DISTINCT COALESCE(class_type, 'UNKNOWN') AS v FROM "+colas+
		" WHERE class_type IS NULL OR TRIM(class_type) <> ''", &o.ClassTypes)
	distinct("brands", "SELECT DISTINCT "+brandExpr("")+" AS v FROM "+colas, &o.Brands)
	distinct("violation_groups", "SELECT DISTINCT violation_group AS v FROM "+s.table(viewViolations)+
		" WHERE violation_group IS NOT NULL AND TRIM(violation_group) <> ''", &o.ViolationGroups)
	distinct("commodities", "SELECT DISTINCT ct_commodity AS v FROM "+colas, &commodities)
	g.Go(func() error {
		b, err := s.DateBounds(gctx)
		if err != nil {
			return err
		}
		o.Bounds = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.Commodities = []CommodityOption{}
	for _, c := range classify.OrderCommodities(commodities) {
		o.Commodities = append(o.Commodities, CommodityOption{
			Value: c,
			Label: classify.DisplayName(c),
			Icon:  classify.CommodityIcon(c),
			Color: classify.CommodityColor(c),
		})
	}
	o.DefaultWindow = DefaultWindow(o.Bounds, s.windowDays)

	for _, list := range []*[]string{&o.Origins, &o.ClassTypes, &o.Brands, &o.ViolationGroups} {
		if *list == nil {
			*list = []string{}
		}
	}
	return o, nil
}
