package colas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/cola-explorer/internal/metrics"
)

// Match is the slim projection of one matching COLA, used for totals and
// aggregates over the whole result set.
type Match struct {
	ColaID        string `gorm:"column:cola_id" json:"cola_id"`
	CompletedDate Date   `json:"completed_date"`
	CtCommodity   string `gorm:"column:ct_commodity" json:"ct_commodity"`
}

// Result is the outcome of a search.
type Result struct {
	Filters Filters `json:"filters"`
	// IDList is set when the search term was a list of COLA IDs.
	IDList  []string  `json:"id_list,omitempty"`
	Dates   DateRange `json:"dates"`
	Bounds  DateRange `json:"bounds"`
	Total   int       `json:"total"`
	Matches []Match   `json:"-"`
	Records []Record  `json:"records"`
}

// Search runs f against vw_colas. Every match is counted and returned as a
// Match; only the requested page is hydrated into Records.
func (s *Store) Search(ctx context.Context, f Filters) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Filters: f}
	ids, isList := IsColaIDList(f.Search)

	bounds, err := s.DateBounds(ctx)
	if err != nil {
		return nil, err
	}
	res.Bounds = bounds

	q := s.db.WithContext(ctx).
		Table(s.table(viewColas) + " AS c").
		Select("c.cola_id, c.completed_date, c.ct_commodity")

	if isList {
		res.IDList = ids
		q = q.Where("c.cola_id IN ?", ids)
	} else {
		res.Dates = ResolveDates(f, bounds, s.windowDays)
		q = s.applyFilters(q, f, res.Dates)
	}

	if f.Sort == SortShuffle {
		q = q.Order("RANDOM()")
	} else {
		q = q.Order("CASE WHEN c.completed_date IS NULL THEN 1 ELSE 0 END").
			Order("c.completed_date DESC").
			Order("c.cola_id DESC")
	}

	start := time.Now()
	if err := q.Scan(&res.Matches).Error; err != nil {
		return nil, fmt.Errorf("search colas: %w", err)
	}
	metrics.ObserveQuery("matches", start)
	res.Total = len(res.Matches)

	page := pageOf(res.Matches, f.Offset, f.Limit)
	pageIDs := make([]string, len(page))
	for i, m := range page {
		pageIDs[i] = m.ColaID
	}

	res.Records, err = s.hydrate(ctx, pageIDs)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search",
		zap.Int("total", res.Total),
		zap.Int("page", len(res.Records)),
		zap.Bool("id_list", isList),
	)
	return res, nil
}

// applyFilters ANDs together every filter except the ID list.
func (s *Store) applyFilters(q *gorm.DB, f Filters, dates DateRange) *gorm.DB {
	if len(f.Origin) > 0 {
		q = q.Where("COALESCE(c.origin, 'UNKNOWN') IN ?", f.Origin)
	}
	if len(f.ClassType) > 0 {
		q = q.Where("COALESCE(c.class_type, 'UNKNOWN') IN ?", f.ClassType)
	}
	if len(f.Brand) > 0 {
		q = q.Where(brandExpr("c.")+" IN ?", f.Brand)
	}
	if len(f.Commodity) > 0 {
		q = q.Where("c.ct_commodity IN ?", f.Commodity)
	}
	if len(f.ViolationGroup) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM "+s.table(viewViolations)+" v WHERE v.cola_id = c.cola_id AND v.violation_group IN ?)", f.ViolationGroup)
	}
	if dates.Valid() {
		// Half-open on the day after End so every time of day on End matches.
		q = q.Where("c.completed_date >= ? AND c.completed_date < ?",
			dates.Start.String(), NewDate(dates.End.Time.AddDate(0, 0, 1)).String())
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		cond, args := s.termCondition(term)
		q = q.Where(cond, args...)
	}
	if term := strings.TrimSpace(f.Exclude); term != "" {
		cond, args := s.termCondition(term)
		q = q.Where("NOT "+cond, args...)
	}
	return q
}

// termCondition is a case-insensitive substring match of term over the
// record's identifiers and names, its image analysis text and its COLA
// analysis documents. LIKE metacharacters in term match literally.
func (s *Store) termCondition(term string) (string, []any) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	like := func(expr string) string {
		return "LOWER(" + expr + ") LIKE ? ESCAPE '\\'"
	}

	cond := "(" + strings.Join([]string{
		like("CAST(c.cola_id AS VARCHAR)"),
		like("COALESCE(c.brand_name, '')"),
		like("COALESCE(c.fanciful_name, '')"),
		like("COALESCE(c.permit_num, '')"),
		like("COALESCE(c.serial_num, '')"),
		"EXISTS (SELECT 1 FROM " + s.table("image_analysis_items") + " i WHERE i.cola_id = c.cola_id AND " +
			like("COALESCE(i.text, '')") + ")",
		"EXISTS (SELECT 1 FROM " + s.table("cola_analysis") + " a WHERE a.cola_id = c.cola_id AND (" +
			like("COALESCE(CAST(a.response AS TEXT), '')") + " OR " +
			like("COALESCE(CAST(a.metadata AS TEXT), '')") + "))",
	}, " OR ") + ")"

	args := make([]any, 8)
	for i := range args {
		args[i] = pattern
	}
	return cond, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// brandExpr maps NULL and blank brand names to UNKNOWN.
func brandExpr(prefix string) string {
	col := prefix + "brand_name"
	return "CASE WHEN " + col + " IS NULL OR TRIM(" + col + ") = '' THEN 'UNKNOWN' ELSE " + col + " END"
}

func pageOf(matches []Match, offset, limit int) []Match {
	if offset >= len(matches) {
		return nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end]
}

// Get returns one hydrated record.
func (s *Store) Get(ctx context.Context, colaID string) (*Record, error) {
	colaID = strings.TrimSpace(colaID)
	if !ValidColaID(colaID) {
		return nil, ErrInvalidColaID
	}
	records, err := s.hydrate(ctx, []string{colaID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// DateBounds returns the earliest and latest completed dates.
func (s *Store) DateBounds(ctx context.Context) (DateRange, error) {
	start := time.Now()
	defer metrics.ObserveQuery("date_bounds", start)

	var r DateRange
	row := s.db.WithContext(ctx).
		Raw("SELECT MIN(completed_date), MAX(completed_date) FROM " + s.table("colas")).
		Row()
	if err := row.Scan(&r.Start, &r.End); err != nil {
		return DateRange{}, fmt.Errorf("date bounds: %w", err)
	}
	return r, nil
}

// hydrate loads the records for ids, in the order given, with their public
// images, image analysis items and violations.
func (s *Store) hydrate(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}
	tx := s.db.WithContext(ctx)

	start := time.Now()
	var rows []Record
	if err := tx.Where("cola_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	metrics.ObserveQuery("page", start)

	start = time.Now()
	var images []Image
	if err := tx.Where("cola_id IN ? AND public_url IS NOT NULL", ids).
		Order("cola_id").Order("file_name").
		Find(&images).Error; err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	metrics.ObserveQuery("images", start)

	start = time.Now()
	var items []ImageAnalysisItem
	if err := tx.Where("cola_id IN ?", ids).
		Order("cola_id").Order("file_name").Order("analysis_item_type").
		Order("model_confidence DESC").Order("item_id").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load analysis items: %w", err)
	}
	metrics.ObserveQuery("items", start)

	start = time.Now()
	var violations []Violation
	if err := tx.Where("cola_id IN ?", ids).
		Order("cola_id").Order("analysis_id").Order("violation_index").
		Find(&violations).Error; err != nil {
		return nil, fmt.Errorf("load violations: %w", err)
	}
	metrics.ObserveQuery("violations", start)

	type imageKey struct{ colaID, fileName string }
	itemsByImage := make(map[imageKey][]ImageAnalysisItem)
	for _, it := range items {
		k := imageKey{it.ColaID, it.FileName}
		itemsByImage[k] = append(itemsByImage[k], it)
	}
	imagesByCola := make(map[string][]Image)
	for _, img := range images {
		img.Items = itemsByImage[imageKey{img.ColaID, img.FileName}]
		if img.Items == nil {
			img.Items = []ImageAnalysisItem{}
		}
		imagesByCola[img.ColaID] = append(imagesByCola[img.ColaID], img)
	}
	violationsByCola := make(map[string][]Violation)
	for _, v := range violations {
		violationsByCola[v.ColaID] = append(violationsByCola[v.ColaID], v)
	}

	byID := make(map[string]Record, len(rows))
	for _, r := range rows {
		r.Images = imagesByCola[r.ColaID]
		if r.Images == nil {
			r.Images = []Image{}
		}
		r.Violations = violationsByCola[r.ColaID]
		if r.Violations == nil {
			r.Violations = []Violation{}
		}
		byID[r.ColaID] = r
	}

	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
