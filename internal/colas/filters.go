package colas

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Sort orders.
const (
	SortRecent  = "recent"
	SortShuffle = "shuffle"
)

// MaxLimit caps how many records one search hydrates.
const MaxLimit = 100

// Filters is a search request, usually parsed from URL query parameters.
type Filters struct {
	Search         string   `json:"search,omitempty" validate:"max=1000"`
	Exclude        string   `json:"exclude,omitempty" validate:"max=1000"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	Commodity      []string `json:"commodity,omitempty" validate:"dive,max=200"`
	Origin         []string `json:"origin,omitempty" validate:"dive,max=200"`
	ClassType      []string `json:"class_type,omitempty" validate:"dive,max=200"`
	Brand          []string `json:"brand,omitempty" validate:"dive,max=200"`
	ViolationGroup []string `json:"violation_group,omitempty" validate:"dive,max=200"`
	AllDates       bool     `json:"all_dates,omitempty"`
	Sort           string   `json:"sort,omitempty" validate:"omitempty,oneof=recent shuffle"`
	Limit          int      `json:"limit" validate:"min=1,max=100"`
	Offset         int      `json:"offset" validate:"min=0"`
}

var (
	validate   = validator.New()
	colaIDExpr = regexp.MustCompile(`^[0-9]{14}$`)
)

// ParseFilters reads filters from query parameters. List parameters are
// comma-separated; defaultLimit applies when limit is absent.
func ParseFilters(q url.Values, defaultLimit int) (Filters, error) {
	f := Filters{
		Search:         strings.TrimSpace(q.Get("search")),
		Exclude:        strings.TrimSpace(q.Get("exclude")),
		StartDate:      strings.TrimSpace(q.Get("start_date")),
		EndDate:        strings.TrimSpace(q.Get("end_date")),
		Commodity:      splitParam(q, "commodity"),
		Origin:         splitParam(q, "origin"),
		ClassType:      splitParam(q, "class_type"),
		Brand:          splitParam(q, "brand"),
		ViolationGroup: splitParam(q, "violation_group"),
		Sort:           strings.ToLower(strings.TrimSpace(q.Get("sort"))),
		Limit:          defaultLimit,
	}
	if f.Limit <= 0 || f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}

	switch strings.ToLower(strings.TrimSpace(q.Get("all_dates"))) {
	case "1", "true", "yes", "on":
		f.AllDates = true
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Filters{}, fmt.Errorf("limit: %w", err)
		}
		f.Limit = n
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Filters{}, fmt.Errorf("offset: %w", err)
		}
		f.Offset = n
	}

	if err := f.Validate(); err != nil {
		return Filters{}, err
	}
	return f, nil
}

// Validate checks the struct constraints.
func (f Filters) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid filters: %w", err)
	}
	return nil
}

// Query encodes the filters back into canonical query parameters.
func (f Filters) Query() url.Values {
	q := url.Values{}
	set := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	set("search", f.Search)
	set("exclude", f.Exclude)
	set("start_date", f.StartDate)
	set("end_date", f.EndDate)
	set("commodity", strings.Join(f.Commodity, ","))
	set("origin", strings.Join(f.Origin, ","))
	set("class_type", strings.Join(f.ClassType, ","))
	set("brand", strings.Join(f.Brand, ","))
	set("violation_group", strings.Join(f.ViolationGroup, ","))
	if f.AllDates {
		q.Set("all_dates", "1")
	}
	set("sort", f.Sort)
	if f.Limit != 0 && f.Limit != MaxLimit {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

func splitParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// IsColaIDList reports whether term is a comma-separated list of 14-digit
// COLA IDs and returns the IDs.
func IsColaIDList(term string) ([]string, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, false
	}
	parts := strings.Split(term, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		p := strings.TrimSpace(part)
		if !colaIDExpr.MatchString(p) {
			return nil, false
		}
		ids = append(ids, p)
	}
	return ids, true
}

// ValidColaID reports whether id is a 14-digit COLA ID.
func ValidColaID(id string) bool {
	return colaIDExpr.MatchString(id)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Valid reports whether both ends are set.
func (r DateRange) Valid() bool {
	return r.Start.Valid && r.End.Valid
}

// Days is the number of days between Start and End.
func (r DateRange) Days() int {
	if !r.Valid() {
		return 0
	}
	return int(r.End.Time.Sub(r.Start.Time).Hours() / 24)
}

// ResolveDates picks the date range a search applies. Both URL dates must
// parse as YYYY-MM-DD to be used; otherwise the range is the last
// windowDays days of data, clamped to the earliest date. AllDates selects
// everything. Without bounds (no dated rows) there is no range.
func ResolveDates(f Filters, bounds DateRange, windowDays int) DateRange {
	if !bounds.Valid() {
		return DateRange{}
	}
	if f.AllDates {
		return bounds
	}

	start, errStart := time.Parse(DateLayout, f.StartDate)
	end, errEnd := time.Parse(DateLayout, f.EndDate)
	if errStart == nil && errEnd == nil {
		return DateRange{Start: NewDate(start), End: NewDate(end)}
	}

	return DefaultWindow(bounds, windowDays)
}

// DefaultWindow is [max - windowDays, max] clamped to min.
func DefaultWindow(bounds DateRange, windowDays int) DateRange {
	if !bounds.Valid() {
		return DateRange{}
	}
	if windowDays <= 0 {
		windowDays = 14
	}
	start := NewDate(bounds.End.Time.AddDate(0, 0, -windowDays))
	if start.Time.Before(bounds.Start.Time) {
		start = bounds.Start
	}
	return DateRange{Start: start, End: bounds.End}
}
