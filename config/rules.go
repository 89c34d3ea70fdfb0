// Package config holds the generation rules, the branding configuration and
// the environment settings of the pipeline. Files are YAML (JSON is
// accepted as well); fields missing from a file keep their defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules are the validation and post-processing rules of a generation run.
type Rules struct {
	MaxTitleLength  int            `yaml:"max_title_length" json:"max_title_length"`
	MaxBulletLength int            `yaml:"max_bullet_length" json:"max_bullet_length"`
	MaxBulletLevel  int            `yaml:"max_bullet_level" json:"max_bullet_level"`
	ForbiddenWords  []string       `yaml:"forbidden_words" json:"forbidden_words"`
	Analyzer        AnalyzerRules  `yaml:"analyzer" json:"analyzer"`
	Refiner         RefinerRules   `yaml:"refiner" json:"refiner"`
	Polisher        PolisherRules  `yaml:"polisher" json:"polisher"`
	Recommender     RecommendRules `yaml:"recommender" json:"recommender"`
	PDF             PDFRules       `yaml:"pdf" json:"pdf"`
}

// AnalyzerRules are thresholds used by the deck analyzer.
type AnalyzerRules struct {
	MinFontSize        float64 `yaml:"min_font_size" json:"min_font_size"`
	MinContrastRatio   float64 `yaml:"min_contrast_ratio" json:"min_contrast_ratio"`
	MarginIn           float64 `yaml:"margin_in" json:"margin_in"`
	MaxBulletsPerSlide int     `yaml:"max_bullets_per_slide" json:"max_bullets_per_slide"`
}

// RefinerRules toggle automatic content fixes.
type RefinerRules struct {
	EnableBulletReindent bool    `yaml:"enable_bullet_reindent" json:"enable_bullet_reindent"`
	EnableFontRaise      bool    `yaml:"enable_font_raise" json:"enable_font_raise"`
	MinFontSize          float64 `yaml:"min_font_size" json:"min_font_size"`
}

// PolisherRules configure the external polisher command.
type PolisherRules struct {
	Enabled    bool     `yaml:"enabled" json:"enabled"`
	Executable string   `yaml:"executable" json:"executable"`
	RulesPath  string   `yaml:"rules_path" json:"rules_path"`
	TimeoutSec int      `yaml:"timeout_sec" json:"timeout_sec"`
	Arguments  []string `yaml:"arguments" json:"arguments"`
}

// Timeout returns the polisher timeout.
func (p PolisherRules) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// RecommendRules tune layout scoring.
type RecommendRules struct {
	MaxCandidates   int     `yaml:"max_candidates" json:"max_candidates"`
	DiversityWeight float64 `yaml:"diversity_weight" json:"diversity_weight"`
	AIWeight        float64 `yaml:"ai_weight" json:"ai_weight"`
}

// PDFRules configure PDF conversion.
type PDFRules struct {
	TimeoutSec int `yaml:"timeout_sec" json:"timeout_sec"`
	Retries    int `yaml:"retries" json:"retries"`
}

// Timeout returns the conversion timeout.
func (p PDFRules) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// DefaultRules returns the default rules.
func DefaultRules() *Rules {
	return &Rules{
		MaxTitleLength:  25,
		MaxBulletLength: 120,
		MaxBulletLevel:  3,
		ForbiddenWords:  []string{},
		Analyzer: AnalyzerRules{
			MinFontSize:        12,
			MinContrastRatio:   4.5,
			MarginIn:           0.5,
			MaxBulletsPerSlide: 6,
		},
		Refiner: RefinerRules{
			EnableBulletReindent: true,
			EnableFontRaise:      false,
			MinFontSize:          12,
		},
		Polisher: PolisherRules{
			Enabled:    false,
			TimeoutSec: 90,
			Arguments:  []string{},
		},
		Recommender: RecommendRules{
			MaxCandidates:   5,
			DiversityWeight: 0.05,
			AIWeight:        0.5,
		},
		PDF: PDFRules{
			TimeoutSec: 120,
			Retries:    2,
		},
	}
}

// LoadRules reads a rules file over the defaults. An empty path returns the
// defaults.
func LoadRules(path string) (*Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	if err := loadFile(path, r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return r, nil
}

// Validate checks the value ranges.
func (r *Rules) Validate() error {
	if r.MaxTitleLength <= 0 {
		return fmt.Errorf("max_title_length must be positive, got %d", r.MaxTitleLength)
	}
	if r.MaxBulletLength <= 0 {
		return fmt.Errorf("max_bullet_length must be positive, got %d", r.MaxBulletLength)
	}
	if r.MaxBulletLevel < 0 || r.MaxBulletLevel > 5 {
		return fmt.Errorf("max_bullet_level must be within 0..5, got %d", r.MaxBulletLevel)
	}
	if r.Recommender.MaxCandidates <= 0 {
		return fmt.Errorf("recommender.max_candidates must be positive, got %d", r.Recommender.MaxCandidates)
	}
	if r.Recommender.AIWeight < 0 || r.Recommender.AIWeight > 1 {
		return fmt.Errorf("recommender.ai_weight must be within 0..1, got %g", r.Recommender.AIWeight)
	}
	if r.Polisher.Enabled && r.Polisher.Executable == "" {
		return fmt.Errorf("polisher.executable is required when the polisher is enabled")
	}
	return nil
}

// loadFile decodes a YAML or JSON file into v.
func loadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}
