package colas

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/EmpoweredVote/cola-explorer/internal/db"
)

// Cola is one scraped registry record.
type Cola struct {
	ColaID        string     `gorm:"column:cola_id;type:varchar(14);primaryKey" json:"cola_id"`
	PermitNum     *string    `json:"permit_num"`
	SerialNum     *string    `json:"serial_num"`
	CompletedDate *time.Time `gorm:"type:date" json:"completed_date"`
	BrandName     *string    `json:"brand_name"`
	FancifulName  *string    `json:"fanciful_name"`
	Origin        *string    `json:"origin"`
	OriginCode    *string    `json:"origin_code"`
	ClassType     *string    `json:"class_type"`
	ClassTypeCode *string    `json:"class_type_code"`
	Status        *string    `json:"status"`
	ScrapedAt     *time.Time `json:"scraped_at"`
}

func (Cola) TableName(namer schema.Namer) string {
	return namer.TableName("colas")
}

// ColaImage is one label image of a COLA.
type ColaImage struct {
	ColaID        string     `gorm:"column:cola_id;type:varchar(14);primaryKey" json:"cola_id"`
	FileName      string     `gorm:"primaryKey" json:"file_name"`
	ImgType       *string    `json:"img_type"`
	DimensionsTxt *string    `json:"dimensions_txt"`
	StorageKey    *string    `json:"storage_key"`
	Width         *int       `json:"width"`
	Height        *int       `json:"height"`
	ScrapedAt     *time.Time `json:"scraped_at"`
}

func (ColaImage) TableName(namer schema.Namer) string {
	return namer.TableName("cola_images")
}

// ColaImageAnalysis is the raw model output for one image.
type ColaImageAnalysis struct {
	AnalysisID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"analysis_id"`
	ColaID     string     `gorm:"column:cola_id;type:varchar(14);not null" json:"cola_id"`
	FileName   string     `gorm:"not null" json:"file_name"`
	Model      *string    `json:"model"`
	Response   JSONText   `json:"response"`
	AnalyzedAt *time.Time `json:"analyzed_at"`
}

func (ColaImageAnalysis) TableName(namer schema.Namer) string {
	return namer.TableName("cola_image_analysis")
}

func (a *ColaImageAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.AnalysisID == uuid.Nil {
		a.AnalysisID = uuid.New()
	}
	return nil
}

// Analysis item types.
const (
	ItemDenseCaption = "dense_caption"
	ItemTag          = "tag"
	ItemObject       = "object"
	ItemTextBlock    = "text_block"
)

// ImageAnalysisItem is one caption, tag, object or text block found on an
// image.
type ImageAnalysisItem struct {
	ItemID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"item_id"`
	AnalysisID       uuid.UUID `gorm:"type:uuid;not null" json:"analysis_id"`
	ColaID           string    `gorm:"column:cola_id;type:varchar(14);not null" json:"cola_id"`
	FileName         string    `gorm:"not null" json:"file_name"`
	AnalysisItemType string    `gorm:"not null" json:"analysis_item_type"`
	Text             *string   `json:"text"`
	ModelConfidence  *float64  `json:"model_confidence"`
	BoundingBox      *string   `json:"bounding_box"`
}

func (ImageAnalysisItem) TableName(namer schema.Namer) string {
	return namer.TableName("image_analysis_items")
}

func (i *ImageAnalysisItem) BeforeCreate(tx *gorm.DB) error {
	if i.ItemID == uuid.Nil {
		i.ItemID = uuid.New()
	}
	return nil
}

// ColaAnalysis is the compliance review of a whole COLA; Response carries a
// "violations" array.
type ColaAnalysis struct {
	AnalysisID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"analysis_id"`
	ColaID     string     `gorm:"column:cola_id;type:varchar(14);not null" json:"cola_id"`
	Model      *string    `json:"model"`
	Response   JSONText   `json:"response"`
	Metadata   JSONText   `json:"metadata"`
	AnalyzedAt *time.Time `json:"analyzed_at"`
}

func (ColaAnalysis) TableName(namer schema.Namer) string {
	return namer.TableName("cola_analysis")
}

func (a *ColaAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.AnalysisID == uuid.Nil {
		a.AnalysisID = uuid.New()
	}
	return nil
}

// Record is a vw_colas row hydrated with its images and violations.
type Record struct {
	Cola
	CtCommodity                     string  `gorm:"column:ct_commodity" json:"ct_commodity"`
	CtSource                        string  `gorm:"column:ct_source" json:"ct_source"`
	ColaAnalysisCount               int64   `json:"cola_analysis_count"`
	ColaAnalysisWithViolationsCount int64   `json:"cola_analysis_with_violations_count"`
	ImageCount                      int64   `json:"image_count"`
	ColaDetailsURL                  *string `gorm:"column:cola_details_url" json:"cola_details_url"`
	ColaFormURL                     *string `gorm:"column:cola_form_url" json:"cola_form_url"`
	ColaInternalURL                 *string `gorm:"column:cola_internal_url" json:"cola_internal_url"`

	Images     []Image     `gorm:"-" json:"images"`
	Violations []Violation `gorm:"-" json:"violations"`
}

func (Record) TableName(namer schema.Namer) string {
	return namer.TableName(viewColas)
}

// Image is a vw_cola_images row with its analysis items.
type Image struct {
	ColaImage
	PublicURL         *string `gorm:"column:public_url" json:"public_url"`
	AnalysisItemCount int64   `json:"analysis_item_count"`

	Items []ImageAnalysisItem `gorm:"-" json:"items"`
}

func (Image) TableName(namer schema.Namer) string {
	return namer.TableName(viewImages)
}

// Violation is one element of a COLA analysis "violations" array.
type Violation struct {
	ColaID            string  `gorm:"column:cola_id" json:"cola_id"`
	AnalysisID        string  `json:"analysis_id"`
	ViolationIndex    int64   `json:"violation_index"`
	ViolationComment  *string `json:"violation_comment"`
	ViolationType     *string `json:"violation_type"`
	ViolationGroup    *string `json:"violation_group"`
	ViolationSubgroup *string `json:"violation_subgroup"`
	CfrRef            *string `gorm:"column:cfr_ref" json:"cfr_ref"`
}

func (Violation) TableName(namer schema.Namer) string {
	return namer.TableName(viewViolations)
}

// JSONText is a JSON document stored as jsonb on PostgreSQL and as text on
// SQLite. The empty value is stored as NULL.
type JSONText string

func (JSONText) GormDBDataType(d *gorm.DB, field *schema.Field) string {
	if db.Dialect(d) == db.Postgres {
		return "jsonb"
	}
	return "text"
}

func (j JSONText) Value() (driver.Value, error) {
	if j == "" {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONText) Scan(v any) error {
	switch t := v.(type) {
	case nil:
		*j = ""
	case string:
		*j = JSONText(t)
	case []byte:
		*j = JSONText(t)
	default:
		return fmt.Errorf("scan JSONText from %T", v)
	}
	return nil
}

// MarshalJSON embeds valid documents as-is and anything else as a string.
func (j JSONText) MarshalJSON() ([]byte, error) {
	if j == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(j)) {
		return []byte(j), nil
	}
	return json.Marshal(string(j))
}

// Date is a nullable calendar day. Aggregates such as MIN(completed_date)
// come back from SQLite as text, so Scan accepts both forms.
type Date struct {
	Time  time.Time
	Valid bool
}

// NewDate returns a valid Date at UTC midnight of t's calendar day.
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}

func (d *Date) Scan(v any) error {
	switch t := v.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(t)
		return nil
	case []byte:
		return d.parse(string(t))
	case string:
		return d.parse(t)
	default:
		return fmt.Errorf("scan Date from %T", v)
	}
}

func (d *Date) parse(s string) error {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*d = NewDate(t)
			return nil
		}
	}
	return fmt.Errorf("scan Date: unrecognized value %q", s)
}

func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.String(), nil
}

// String formats the day as YYYY-MM-DD, or "" when invalid.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}

// DateLayout is the YYYY-MM-DD layout used in URLs and JSON.
const DateLayout = "2006-01-02"
