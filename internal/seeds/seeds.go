// Package seeds loads the embedded sample dataset. Loading is idempotent:
// IDs are derived from the record contents and existing rows are kept.
package seeds

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EmpoweredVote/cola-explorer/internal/colas"
)

//go:embed data/sample.yaml
var sampleYAML []byte

// Namespace for deterministic analysis and item IDs.
var Namespace = uuid.MustParse("6f1c1f0e-8a0b-4e57-9a43-0c7a7f0b5e21")

type dataset struct {
	Colas []colaRow `yaml:"colas"`
}

type colaRow struct {
	ColaID        string        `yaml:"cola_id"`
	PermitNum     *string       `yaml:"permit_num"`
	SerialNum     *string       `yaml:"serial_num"`
	CompletedDate string        `yaml:"completed_date"`
	BrandName     *string       `yaml:"brand_name"`
	FancifulName  *string       `yaml:"fanciful_name"`
	Origin        *string       `yaml:"origin"`
	ClassType     *string       `yaml:"class_type"`
	Status        *string       `yaml:"status"`
	Images        []imageRow    `yaml:"images"`
	Analyses      []analysisRow `yaml:"analyses"`
}

type imageRow struct {
	FileName      string       `yaml:"file_name"`
	ImgType       *string      `yaml:"img_type"`
	DimensionsTxt *string      `yaml:"dimensions_txt"`
	StorageKey    *string      `yaml:"storage_key"`
	Width         *int         `yaml:"width"`
	Height        *int         `yaml:"height"`
	Analysis      *analysisRow `yaml:"analysis"`
}

type analysisRow struct {
	Model    *string   `yaml:"model"`
	Response string    `yaml:"response"`
	Metadata string    `yaml:"metadata"`
	Items    []itemRow `yaml:"items"`
}

type itemRow struct {
	Type       string   `yaml:"type"`
	Text       *string  `yaml:"text"`
	Confidence *float64 `yaml:"confidence"`
}

// Counts reports how many rows of each kind the dataset holds.
type Counts struct {
	Colas         int
	Images        int
	ImageAnalyses int
	Items         int
	ColaAnalyses  int
}

// Sample returns the embedded dataset as table rows.
func Sample() (*Rows, error) {
	return Parse(sampleYAML)
}

// Rows is a dataset ready to insert.
type Rows struct {
	Colas         []colas.Cola
	Images        []colas.ColaImage
	ImageAnalyses []colas.ColaImageAnalysis
	Items         []colas.ImageAnalysisItem
	ColaAnalyses  []colas.ColaAnalysis
}

// Counts returns the row counts of r.
func (r *Rows) Counts() Counts {
	return Counts{
		Colas:         len(r.Colas),
		Images:        len(r.Images),
		ImageAnalyses: len(r.ImageAnalyses),
		Items:         len(r.Items),
		ColaAnalyses:  len(r.ColaAnalyses),
	}
}

// Parse decodes a YAML dataset.
func Parse(raw []byte) (*Rows, error) {
	var ds dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}

	out := &Rows{}
	for _, c := range ds.Colas {
		if !colas.ValidColaID(c.ColaID) {
			return nil, fmt.Errorf("seed cola %q: %w", c.ColaID, colas.ErrInvalidColaID)
		}

		row := colas.Cola{
			ColaID:       c.ColaID,
			PermitNum:    c.PermitNum,
			SerialNum:    c.SerialNum,
			BrandName:    c.BrandName,
			FancifulName: c.FancifulName,
			Origin:       c.Origin,
			ClassType:    c.ClassType,
			Status:       c.Status,
		}
		if c.CompletedDate != "" {
			t, err := time.Parse(colas.DateLayout, c.CompletedDate)
			if err != nil {
				return nil, fmt.Errorf("seed cola %s completed_date: %w", c.ColaID, err)
			}
			row.CompletedDate = &t
		}
		out.Colas = append(out.Colas, row)

		for _, img := range c.Images {
			out.Images = append(out.Images, colas.ColaImage{
				ColaID:        c.ColaID,
				FileName:      img.FileName,
				ImgType:       img.ImgType,
				DimensionsTxt: img.DimensionsTxt,
				StorageKey:    img.StorageKey,
				Width:         img.Width,
				Height:        img.Height,
			})
			if img.Analysis == nil {
				continue
			}

			aid := ImageAnalysisID(c.ColaID, img.FileName)
			out.ImageAnalyses = append(out.ImageAnalyses, colas.ColaImageAnalysis{
				AnalysisID: aid,
				ColaID:     c.ColaID,
				FileName:   img.FileName,
				Model:      img.Analysis.Model,
				Response:   colas.JSONText(img.Analysis.Response),
			})
			for i, it := range img.Analysis.Items {
				out.Items = append(out.Items, colas.ImageAnalysisItem{
					ItemID:           ItemID(aid, i),
					AnalysisID:       aid,
					ColaID:           c.ColaID,
					FileName:         img.FileName,
					AnalysisItemType: it.Type,
					Text:             it.Text,
					ModelConfidence:  it.Confidence,
				})
			}
		}

		for i, a := range c.Analyses {
			out.ColaAnalyses = append(out.ColaAnalyses, colas.ColaAnalysis{
				AnalysisID: ColaAnalysisID(c.ColaID, i),
				ColaID:     c.ColaID,
				Model:      a.Model,
				Response:   colas.JSONText(a.Response),
				Metadata:   colas.JSONText(a.Metadata),
			})
		}
	}
	return out, nil
}

func v5(name string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(name))
}

func ImageAnalysisID(colaID, fileName string) uuid.UUID {
	return v5("image_analysis:" + colaID + ":" + fileName)
}

func ItemID(analysisID uuid.UUID, index int) uuid.UUID {
	return v5(fmt.Sprintf("item:%s:%d", analysisID, index))
}

func ColaAnalysisID(colaID string, index int) uuid.UUID {
	return v5(fmt.Sprintf("cola_analysis:%s:%d", colaID, index))
}

// Insert writes rows in one transaction, skipping rows that already exist.
func Insert(ctx context.Context, d *gorm.DB, rows *Rows) error {
	return d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip := tx.Clauses(clause.OnConflict{DoNothing: true})

		if len(rows.Colas) > 0 {
			if err := skip.Create(&rows.Colas).Error; err != nil {
				return fmt.Errorf("insert colas: %w", err)
			}
		}
		if len(rows.Images) > 0 {
			if err := skip.Create(&rows.Images).Error; err != nil {
				return fmt.Errorf("insert cola images: %w", err)
			}
		}
		if len(rows.ImageAnalyses) > 0 {
			if err := skip.Create(&rows.ImageAnalyses).Error; err != nil {
				return fmt.Errorf("insert image analyses: %w", err)
			}
		}
		if len(rows.Items) > 0 {
			if err := skip.Create(&rows.Items).Error; err != nil {
				return fmt.Errorf("insert analysis items: %w", err)
			}
		}
		if len(rows.ColaAnalyses) > 0 {
			if err := skip.Create(&rows.ColaAnalyses).Error; err != nil {
				return fmt.Errorf("insert cola analyses: %w", err)
			}
		}
		return nil
	})
}

// Seed loads the embedded sample dataset.
func Seed(ctx context.Context, d *gorm.DB, logger *zap.Logger) (Counts, error) {
	rows, err := Sample()
	if err != nil {
		return Counts{}, err
	}
	if err := Insert(ctx, d, rows); err != nil {
		return Counts{}, err
	}

	n := rows.Counts()
	if logger != nil {
		logger.Info("seeded sample data",
			zap.Int("colas", n.Colas),
			zap.Int("images", n.Images),
			zap.Int("cola_analyses", n.ColaAnalyses),
		)
	}
	return n, nil
}
