package colas

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/db"
)

// View names, before the schema prefix is applied.
const (
	viewColas           = "vw_colas"
	viewImages          = "vw_cola_images"
	viewViolations      = "vw_cola_violations_list"
	viewStats           = "vw_cola_stats"
	viewViolationGroups = "vw_violation_group_stats"
)

// viewOrder lists the views in creation order; they are dropped in reverse.
var viewOrder = []string{viewColas, viewImages, viewViolations, viewStats, viewViolationGroups}

// ViewConfig carries the rule set and link bases compiled into the views.
type ViewConfig struct {
	Rules        *classify.Rules
	DetailURL    string
	FormURL      string
	InternalURL  string
	ImageBaseURL string
}

// viewBuilder renders view DDL for one dialect.
type viewBuilder struct {
	cfg     ViewConfig
	dialect string
	table   func(string) string
}

func newViewBuilder(d *gorm.DB, cfg ViewConfig) viewBuilder {
	return dialectViewBuilder(db.Dialect(d), func(name string) string { return db.TableName(d, name) }, cfg)
}

// dialectViewBuilder renders for dialect with table resolving logical names.
func dialectViewBuilder(dialect string, table func(string) string, cfg ViewConfig) viewBuilder {
	if cfg.Rules == nil {
		cfg.Rules = classify.Default()
	}
	return viewBuilder{cfg: cfg, dialect: dialect, table: table}
}

// statements returns the DROP statements followed by the CREATE statements.
func (b viewBuilder) statements() []string {
	var stmts []string
	for i := len(viewOrder) - 1; i >= 0; i-- {
		stmts = append(stmts, "DROP VIEW IF EXISTS "+b.table(viewOrder[i]))
	}
	for _, name := range viewOrder {
		stmts = append(stmts, fmt.Sprintf("CREATE VIEW %s AS\n%s", b.table(name), b.body(name)))
	}
	return stmts
}

func (b viewBuilder) body(name string) string {
	switch name {
	case viewColas:
		return b.colas()
	case viewImages:
		return b.images()
	case viewViolations:
		return b.violations()
	case viewStats:
		return b.stats()
	case viewViolationGroups:
		return b.violationGroups()
	}
	panic("unknown view " + name)
}

func (b viewBuilder) colas() string {
	internal := "CAST(NULL AS TEXT)"
	if b.cfg.InternalURL != "" {
		internal = quote(b.cfg.InternalURL) + " || c.cola_id"
	}
	return `SELECT c.*,
  ` + b.cfg.Rules.CommodityExpr("c.class_type") + ` AS ct_commodity,
  ` + b.cfg.Rules.SourceExpr("c.origin") + ` AS ct_source,
  COALESCE(ca.analysis_count, 0) AS cola_analysis_count,
  COALESCE(ca.with_violations, 0) AS cola_analysis_with_violations_count,
  COALESCE(ci.image_count, 0) AS image_count,
  ` + quote(b.cfg.DetailURL) + ` || c.cola_id AS cola_details_url,
  ` + quote(b.cfg.FormURL) + ` || c.cola_id AS cola_form_url,
  ` + internal + ` AS cola_internal_url
FROM ` + b.table("colas") + ` c
LEFT JOIN (
  SELECT cola_id,
    COUNT(*) AS analysis_count,
    CAST(SUM(CASE WHEN ` + b.violationCount("response") + ` > 0 THEN 1 ELSE 0 END) AS BIGINT) AS with_violations
  FROM ` + b.table("cola_analysis") + `
  GROUP BY cola_id
) ca ON ca.cola_id = c.cola_id
LEFT JOIN (
  SELECT cola_id, COUNT(*) AS image_count
  FROM ` + b.table("cola_images") + `
  GROUP BY cola_id
) ci ON ci.cola_id = c.cola_id`
}

func (b viewBuilder) images() string {
	return `SELECT i.*,
  CASE WHEN i.storage_key IS NULL OR i.storage_key = '' THEN CAST(NULL AS TEXT)
    ELSE ` + quote(b.cfg.ImageBaseURL) + ` || i.storage_key END AS public_url,
  COALESCE(a.item_count, 0) AS analysis_item_count
FROM ` + b.table("cola_images") + ` i
LEFT JOIN (
  SELECT cola_id, file_name, COUNT(*) AS item_count
  FROM ` + b.table("image_analysis_items") + `
  GROUP BY cola_id, file_name
) a ON a.cola_id = i.cola_id AND a.file_name = i.file_name`
}

// violationCount is the length of col's "violations" array, or 0 when col
// is not JSON or has no such array.
func (b viewBuilder) violationCount(col string) string {
	if b.dialect == db.Postgres {
		return "(CASE WHEN jsonb_typeof(" + col + "->'violations') = 'array' THEN jsonb_array_length(" + col + "->'violations') ELSE 0 END)"
	}
	return "(CASE WHEN json_valid(" + col + ") THEN CASE WHEN json_type(" + col + ", '$.violations') = 'array' THEN json_array_length(" + col + ", '$.violations') ELSE 0 END ELSE 0 END)"
}

var violationFields = []struct{ key, column string }{
	{"comment", "violation_comment"},
	{"type", "violation_type"},
	{"group", "violation_group"},
	{"subgroup", "violation_subgroup"},
	{"cfr_ref", "cfr_ref"},
}

func (b viewBuilder) violations() string {
	var cols []string
	if b.dialect == db.Postgres {
		for _, f := range violationFields {
			cols = append(cols, fmt.Sprintf("v.item->>'%s' AS %s", f.key, f.column))
		}
		return `SELECT ca.cola_id,
  CAST(ca.analysis_id AS TEXT) AS analysis_id,
  v.ord - 1 AS violation_index,
  ` + strings.Join(cols, ",\n  ") + `
FROM ` + b.table("cola_analysis") + ` ca
CROSS JOIN LATERAL jsonb_array_elements(
  CASE WHEN jsonb_typeof(ca.response->'violations') = 'array'
    THEN ca.response->'violations' ELSE '[]'::jsonb END
) WITH ORDINALITY AS v(item, ord)`
	}

	for _, f := range violationFields {
		cols = append(cols, fmt.Sprintf("CAST(CASE WHEN v.type = 'object' THEN json_extract(v.value, '$.%s') END AS TEXT) AS %s", f.key, f.column))
	}
	return `SELECT ca.cola_id,
  CAST(ca.analysis_id AS TEXT) AS analysis_id,
  CAST(v.key AS INTEGER) AS violation_index,
  ` + strings.Join(cols, ",\n  ") + `
FROM ` + b.table("cola_analysis") + ` ca,
json_each(
  CASE WHEN json_valid(ca.response) THEN
    CASE WHEN json_type(ca.response, '$.violations') = 'array'
      THEN json_extract(ca.response, '$.violations') ELSE '[]' END
  ELSE '[]' END
) AS v`
}

func (b viewBuilder) stats() string {
	return `SELECT c.ct_commodity,
  c.ct_source,
  COUNT(*) AS cola_count,
  CAST(SUM(c.image_count) AS BIGINT) AS image_count,
  CAST(SUM(CASE WHEN c.cola_analysis_count > 0 THEN 1 ELSE 0 END) AS BIGINT) AS analyzed_count,
  CAST(SUM(CASE WHEN c.cola_analysis_with_violations_count > 0 THEN 1 ELSE 0 END) AS BIGINT) AS with_violations_count,
  MIN(c.completed_date) AS first_completed_date,
  MAX(c.completed_date) AS last_completed_date
FROM ` + b.table(viewColas) + ` c
GROUP BY c.ct_commodity, c.ct_source`
}

func (b viewBuilder) violationGroups() string {
	return `SELECT v.violation_group,
  COUNT(*) AS violation_count,
  COUNT(DISTINCT v.cola_id) AS cola_count
FROM ` + b.table(viewViolations) + ` v
WHERE v.violation_group IS NOT NULL AND TRIM(v.violation_group) <> ''
GROUP BY v.violation_group`
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
