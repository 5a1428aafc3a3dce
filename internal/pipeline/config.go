package pipeline

import (
	"fmt"

	"github.com/MeKo-Tech/docweave/internal/assembler"
	"github.com/MeKo-Tech/docweave/internal/detector"
	"github.com/MeKo-Tech/docweave/internal/textproc"
)

// Config holds the settings of every pipeline stage.
type Config struct {
	Detector  detector.Config       `mapstructure:"detector" yaml:"detector" json:"detector"`
	Assembler assembler.Config      `mapstructure:"assembler" yaml:"assembler" json:"assembler"`
	Text      textproc.CleanOptions `mapstructure:"text" yaml:"text" json:"text"`
	// DetectLanguage fills Page.Language from the recognized words.
	DetectLanguage bool `mapstructure:"detect_language" yaml:"detect_language" json:"detect_language"`
	// StraightenCrops rotates oriented crops upright before recognition.
	StraightenCrops bool `mapstructure:"straighten_crops" yaml:"straighten_crops" json:"straighten_crops"`
}

// DefaultConfig returns the default pipeline settings.
func DefaultConfig() Config {
	return Config{
		Detector:        detector.DefaultConfig(),
		Assembler:       assembler.DefaultConfig(),
		Text:            textproc.DefaultCleanOptions(),
		DetectLanguage:  true,
		StraightenCrops: true,
	}
}

// Validate checks the stage settings.
func (c Config) Validate() error {
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := c.Assembler.Validate(); err != nil {
		return fmt.Errorf("assembler: %w", err)
	}
	return nil
}
