package present

import (
	"fmt"
	"math"
	"strings"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/colas"
)

// MaxViolationLines is how many review warnings a card lists before
// summarizing the rest.
const MaxViolationLines = 5

// Link points at a registry page for the record.
type Link struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ImagePanel describes one label image. Text fields are HTML with search
// matches highlighted.
type ImagePanel struct {
	PublicURL  string   `json:"public_url,omitempty"`
	FileName   string   `json:"file_name"`
	Type       string   `json:"type"`
	Dimensions string   `json:"dimensions"`
	Captions   []string `json:"captions,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Objects    []string `json:"objects,omitempty"`
	TextBlocks []string `json:"text_blocks,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// Card is the display model of one record.
type Card struct {
	ColaID     string       `json:"cola_id"`
	Header     []string     `json:"header"`
	Badge      string       `json:"badge"`
	Links      []Link       `json:"links"`
	Violations []string     `json:"violations"`
	Images     []ImagePanel `json:"images"`
}

// NewCard renders r with term highlighted.
func NewCard(r colas.Record, term string) Card {
	c := Card{
		ColaID:     r.ColaID,
		Links:      []Link{},
		Violations: []string{},
		Images:     []ImagePanel{},
	}

	h := func(s string) string { return Highlight(s, term) }

	c.Header = append(c.Header, h(r.ColaID), h(orDefault(r.PermitNum, "N/A")))
	if fanciful := deref(r.FancifulName); strings.TrimSpace(fanciful) != "" {
		c.Header = append(c.Header, h(fanciful))
	}
	c.Header = append(c.Header, h(deref(r.BrandName)))

	origin := deref(r.Origin)
	if flag := classify.FlagIcon(origin, r.CtSource); flag != "" {
		c.Header = append(c.Header, flag+" "+h(origin))
	} else {
		c.Header = append(c.Header, h(origin))
	}
	c.Header = append(c.Header, classify.CommodityIcon(r.CtCommodity)+" "+h(deref(r.ClassType)))

	completed := "N/A"
	if r.CompletedDate != nil {
		completed = r.CompletedDate.Format("01/02/2006")
	}
	c.Header = append(c.Header, "☑️ "+completed)

	c.Badge = Badge(r.ColaAnalysisCount, r.ColaAnalysisWithViolationsCount)

	if u := deref(r.ColaDetailsURL); u != "" {
		c.Links = append(c.Links, Link{Icon: "ℹ️", Title: "Public COLA Registry Details", URL: u})
	}
	if u := deref(r.ColaFormURL); u != "" {
		c.Links = append(c.Links, Link{Icon: "📄", Title: "Public COLA Registry Form", URL: u})
	}
	if u := deref(r.ColaInternalURL); u != "" {
		c.Links = append(c.Links, Link{Icon: "🔗", Title: "TTB Internal COLAs Online", URL: u})
	}

	c.Violations = ViolationLines(r.Violations, term)

	for _, img := range r.Images {
		c.Images = append(c.Images, newImagePanel(img, term))
	}
	return c
}

// Badge summarizes the review state: the number of analyses with
// violations, "🤖 0" when reviewed clean, or pending.
func Badge(analyses, withViolations int64) string {
	switch {
	case withViolations > 0:
		return fmt.Sprintf("🤖 %d", withViolations)
	case analyses > 0:
		return "🤖 0"
	default:
		return "⏳ Pending Review"
	}
}

// ViolationLines lists the first MaxViolationLines violations that carry a
// comment, prefixed with their CFR reference, type and group.
func ViolationLines(violations []colas.Violation, term string) []string {
	lines := []string{}
	hidden := 0
	for _, v := range violations {
		comment := deref(v.ViolationComment)
		if comment == "" {
			continue
		}
		if len(lines) == MaxViolationLines {
			hidden++
			continue
		}

		var prefix []string
		if ref := deref(v.CfrRef); ref != "" {
			prefix = append(prefix, "CFR "+ref)
		}
		if t := deref(v.ViolationType); t != "" {
			prefix = append(prefix, t)
		}
		if g := deref(v.ViolationGroup); g != "" {
			prefix = append(prefix, g)
		}

		line := "• "
		if len(prefix) > 0 {
			line += "[" + Highlight(strings.Join(prefix, " | "), "") + "] "
		}
		lines = append(lines, line+Highlight(comment, term))
	}
	if hidden > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more review warnings", hidden))
	}
	return lines
}

func newImagePanel(img colas.Image, term string) ImagePanel {
	imgType := orDefault(img.ImgType, "N/A")
	imgType = strings.TrimPrefix(imgType, "Label Image: ")

	p := ImagePanel{
		PublicURL:  deref(img.PublicURL),
		FileName:   Highlight(img.FileName, term),
		Type:       Highlight(imgType, term),
		Dimensions: Highlight(orDefault(img.DimensionsTxt, "N/A"), term),
	}

	for _, it := range img.Items {
		text := Highlight(deref(it.Text), term)
		if it.ModelConfidence != nil {
			text += fmt.Sprintf(" (%d%%)", int(math.Round(*it.ModelConfidence*100)))
		}
		switch it.AnalysisItemType {
		case colas.ItemDenseCaption:
			p.Captions = append(p.Captions, text)
		case colas.ItemTag:
			p.Tags = append(p.Tags, text)
		case colas.ItemObject:
			p.Objects = append(p.Objects, text)
		case colas.ItemTextBlock:
			p.TextBlocks = append(p.TextBlocks, text)
		}
	}
	if len(img.Items) == 0 {
		p.Note = "No image analysis data found"
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
