package present

import (
	"sort"
	"time"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/colas"
)

// Chart granularities.
const (
	Daily   = "day"
	Weekly  = "week"
	Monthly = "month"
)

// Slice is one commodity's share of a result set.
type Slice struct {
	Commodity string `json:"commodity"`
	Label     string `json:"label"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	Count     int    `json:"count"`
}

// Distribution counts matches per commodity, in display order.
func Distribution(matches []colas.Match) []Slice {
	counts := map[string]int{}
	var seen []string
	for _, m := range matches {
		c := commodityOf(m)
		if _, ok := counts[c]; !ok {
			seen = append(seen, c)
		}
		counts[c]++
	}

	out := []Slice{}
	for _, c := range classify.OrderCommodities(seen) {
		out = append(out, Slice{
			Commodity: c,
			Label:     classify.DisplayName(c),
			Icon:      classify.CommodityIcon(c),
			Color:     classify.CommodityColor(c),
			Count:     counts[c],
		})
	}
	return out
}

// Bucket is one bar of the chart.
type Bucket struct {
	Start  string         `json:"start"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// Chart is a stacked bar chart of matches over time.
type Chart struct {
	Granularity string   `json:"granularity"`
	XTitle      string   `json:"x_title"`
	Commodities []string `json:"commodities"`
	Colors      []string `json:"colors"`
	Buckets     []Bucket `json:"buckets"`
}

// Granularity picks monthly buckets for ranges over a year, weekly over
// sixty days and daily otherwise.
func Granularity(days int) string {
	switch {
	case days > 365:
		return Monthly
	case days > 60:
		return Weekly
	default:
		return Daily
	}
}

// BucketStart truncates t to the start of its bucket. Weeks start on
// Monday.
func BucketStart(t time.Time, granularity string) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch granularity {
	case Monthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Weekly:
		return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
	}
	return d
}

// BuildChart buckets dated matches. The granularity follows dates, or the
// span of the matches when no range applied. It returns nil when no match
// has a date.
func BuildChart(matches []colas.Match, dates colas.DateRange) *Chart {
	var first, last time.Time
	var dated []colas.Match
	for _, m := range matches {
		if !m.CompletedDate.Valid {
			continue
		}
		t := m.CompletedDate.Time
		if len(dated) == 0 || t.Before(first) {
			first = t
		}
		if len(dated) == 0 || t.After(last) {
			last = t
		}
		dated = append(dated, m)
	}
	if len(dated) == 0 {
		return nil
	}

	days := int(last.Sub(first).Hours() / 24)
	if dates.Valid() {
		days = dates.Days()
	}
	gran := Granularity(days)

	byStart := map[time.Time]*Bucket{}
	var seen []string
	seenSet := map[string]bool{}
	for _, m := range dated {
		start := BucketStart(m.CompletedDate.Time, gran)
		b, ok := byStart[start]
		if !ok {
			b = &Bucket{Start: start.Format(colas.DateLayout), Counts: map[string]int{}}
			byStart[start] = b
		}
		c := commodityOf(m)
		b.Counts[c]++
		b.Total++
		if !seenSet[c] {
			seenSet[c] = true
			seen = append(seen, c)
		}
	}

	chart := &Chart{
		Granularity: gran,
		XTitle:      xTitle(gran),
		Commodities: classify.OrderCommodities(seen),
	}
	for _, c := range chart.Commodities {
		chart.Colors = append(chart.Colors, classify.CommodityColor(c))
	}
	for _, b := range byStart {
		chart.Buckets = append(chart.Buckets, *b)
	}
	sort.Slice(chart.Buckets, func(i, j int) bool {
		return chart.Buckets[i].Start < chart.Buckets[j].Start
	})
	return chart
}

func xTitle(gran string) string {
	switch gran {
	case Monthly:
		return "Month"
	case Weekly:
		return "Week"
	}
	return "Completed Date"
}

func commodityOf(m colas.Match) string {
	if m.CtCommodity == "" {
		return classify.Unknown
	}
	return m.CtCommodity
}
