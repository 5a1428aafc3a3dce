package detector

import (
	"math"

	"github.com/MeKo-Tech/docweave/internal/ocrerr"
)

// Config holds the immutable extraction settings.
type Config struct {
	BoxThresh     float64 `mapstructure:"box_thresh" yaml:"box_thresh" json:"box_thresh"`           // minimum mean probability to keep a box
	BinThresh     float64 `mapstructure:"bin_thresh" yaml:"bin_thresh" json:"bin_thresh"`           // binarization cutoff (strict)
	MinSizeBox    int     `mapstructure:"min_size_box" yaml:"min_size_box" json:"min_size_box"`     // pixel floor on either side of a component
	MaxCandidates int     `mapstructure:"max_candidates" yaml:"max_candidates" json:"max_candidates"` // boxes kept per page
	RotatedBBox   bool    `mapstructure:"rotated_bbox" yaml:"rotated_bbox" json:"rotated_bbox"`     // oriented instead of axis-aligned boxes
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{
		BoxThresh:     0.5,
		BinThresh:     0.3,
		MinSizeBox:    5,
		MaxCandidates: 100,
		RotatedBBox:   false,
	}
}

// Validate checks every option.
func (c Config) Validate() error {
	if !unit(c.BoxThresh) {
		return ocrerr.InvalidParameter("box_thresh", "must be in [0,1], got %v", c.BoxThresh)
	}
	if !unit(c.BinThresh) {
		return ocrerr.InvalidParameter("bin_thresh", "must be in [0,1], got %v", c.BinThresh)
	}
	if c.MinSizeBox < 1 {
		return ocrerr.InvalidParameter("min_size_box", "must be at least 1, got %d", c.MinSizeBox)
	}
	if c.MaxCandidates < 1 {
		return ocrerr.InvalidParameter("max_candidates", "must be at least 1, got %d", c.MaxCandidates)
	}
	return nil
}

func unit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
