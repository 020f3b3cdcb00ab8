// Package classify holds the commodity and origin rules behind the
// ct_commodity and ct_source view columns, evaluates them in Go, and compiles
// them to portable SQL.
package classify

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Commodity values produced by the rules.
const (
	Beer             = "beer"
	Wine             = "wine"
	DistilledSpirits = "distilled_spirits"
	Unknown          = "unknown"
)

// Source values produced by the origin rules.
const (
	Domestic      = "domestic"
	Import        = "import"
	UnknownSource = "unknown"
)

//go:embed rules.yaml
var defaultRules []byte

// CommodityRule maps class-type patterns to one commodity.
type CommodityRule struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// OriginRules decide whether an origin is domestic, import or unknown.
type OriginRules struct {
	DomesticExact    []string `yaml:"domestic_exact"`
	DomesticContains []string `yaml:"domestic_contains"`
	UnknownValues    []string `yaml:"unknown_values"`
}

// Rules is the complete rule set.
type Rules struct {
	Commodities      []CommodityRule `yaml:"commodities"`
	UnknownCommodity string          `yaml:"unknown_commodity"`
	Origin           OriginRules     `yaml:"origin"`
}

// ErrUnsafePattern is returned for patterns that would need escaping in SQL.
var ErrUnsafePattern = errors.New("pattern contains SQL metacharacters")

// punctuation is turned into spaces before matching class types.
var punctuation = []string{"/", "-", ",", "&", "(", ")", "."}

// Default returns the embedded rule set.
func Default() *Rules {
	r, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("classify: embedded rules: %v", err))
	}
	return r
}

// Load reads rules from path, or returns the embedded rules when path is
// empty.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML rule set.
func Parse(raw []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if r.UnknownCommodity == "" {
		r.UnknownCommodity = Unknown
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate rejects empty rules and patterns that are not safe to inline in
// a LIKE expression.
func (r *Rules) Validate() error {
	if len(r.Commodities) == 0 {
		return errors.New("rules: no commodities defined")
	}
	for _, c := range r.Commodities {
		if c.Name == "" {
			return errors.New("rules: commodity without a name")
		}
		if err := checkLiteral(c.Name); err != nil {
			return err
		}
		if len(c.Patterns) == 0 {
			return fmt.Errorf("rules: commodity %q has no patterns", c.Name)
		}
		for _, p := range c.Patterns {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("rules: commodity %q has a blank pattern", c.Name)
			}
			if p != strings.ToLower(p) {
				return fmt.Errorf("rules: pattern %q must be lowercase", p)
			}
			if err := checkSafe(p); err != nil {
				return err
			}
		}
	}
	origin := [][]string{r.Origin.DomesticExact, r.Origin.DomesticContains, r.Origin.UnknownValues}
	for i, list := range origin {
		for _, v := range list {
			if v != strings.ToLower(v) {
				return fmt.Errorf("rules: origin value %q must be lowercase", v)
			}
			check := checkLiteral
			if i == 1 {
				check = checkSafe
			}
			if err := check(v); err != nil {
				return err
			}
		}
	}
	return checkLiteral(r.UnknownCommodity)
}

// checkSafe guards values used inside LIKE patterns.
func checkSafe(s string) error {
	if strings.ContainsAny(s, `'%_\`) {
		return fmt.Errorf("%w: %q", ErrUnsafePattern, s)
	}
	return nil
}

// checkLiteral guards values used as plain string literals.
func checkLiteral(s string) error {
	if strings.ContainsAny(s, `'\`) {
		return fmt.Errorf("%w: %q", ErrUnsafePattern, s)
	}
	return nil
}
