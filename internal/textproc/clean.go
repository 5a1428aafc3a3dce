// Package textproc cleans recognized word strings and guesses the language
// of a page from its text.
package textproc

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls word post-processing.
type CleanOptions struct {
	Form               string            `mapstructure:"form" yaml:"form" json:"form"` // NFC, NFKC, NFD, NFKD or "" for none
	CollapseWhitespace bool              `mapstructure:"collapse_whitespace" yaml:"collapse_whitespace" json:"collapse_whitespace"`
	Trim               bool              `mapstructure:"trim" yaml:"trim" json:"trim"`
	StripInvisible     bool              `mapstructure:"strip_invisible" yaml:"strip_invisible" json:"strip_invisible"`
	Replacements       map[string]string `mapstructure:"replacements" yaml:"replacements" json:"replacements"`
}

// DefaultCleanOptions returns NFC normalization with whitespace cleanup and
// typographic punctuation folded to ASCII.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		Form:               "NFC",
		CollapseWhitespace: true,
		Trim:               true,
		StripInvisible:     true,
		Replacements:       TypographicReplacements(),
	}
}

// TypographicReplacements maps curly quotes, dashes, guillemets and unusual
// spaces to their ASCII counterparts.
func TypographicReplacements() map[string]string {
	return map[string]string{
		"\u2018": "'",
		"\u2019": "'",
		"\u201C": "\"",
		"\u201D": "\"",
		"\u201E": "\"",
		"\u00AB": "\"",
		"\u00BB": "\"",
		"\u2013": "-",
		"\u2014": "-",
		"\u00A0": " ",
		"\u2009": " ",
	}
}

// Cleaner applies CleanOptions to strings. A Cleaner is safe for concurrent use.
type Cleaner struct {
	form     norm.Form
	useForm  bool
	opts     CleanOptions
	replacer *strings.Replacer
}

// NewCleaner prepares a Cleaner. Unknown normalization forms disable
// normalization.
func NewCleaner(opts CleanOptions) *Cleaner {
	c := &Cleaner{opts: opts, useForm: true}
	switch strings.ToUpper(opts.Form) {
	case "NFC":
		c.form = norm.NFC
	case "NFKC":
		c.form = norm.NFKC
	case "NFD":
		c.form = norm.NFD
	case "NFKD":
		c.form = norm.NFKD
	default:
		c.useForm = false
	}
	if len(opts.Replacements) > 0 {
		keys := make([]string, 0, len(opts.Replacements))
		for k := range opts.Replacements {
			if k != "" {
				keys = append(keys, k)
			}
		}
		// longest keys first so that overlapping keys resolve deterministically
		slices.SortFunc(keys, func(a, b string) int {
			if d := len(b) - len(a); d != 0 {
				return d
			}
			return strings.Compare(a, b)
		})
		pairs := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			pairs = append(pairs, k, opts.Replacements[k])
		}
		c.replacer = strings.NewReplacer(pairs...)
	}
	return c
}

// Clean returns the cleaned form of s.
func (c *Cleaner) Clean(s string) string {
	if s == "" {
		return s
	}
	if c.useForm {
		s = c.form.String(s)
	}
	if c.opts.StripInvisible {
		s = strings.Map(func(r rune) rune {
			switch {
			case r == '\n' || r == '\r' || r == '\t':
				return r
			case isZeroWidth(r), unicode.IsControl(r):
				return -1
			}
			return r
		}, s)
	}
	if c.replacer != nil {
		s = c.replacer.Replace(s)
	}
	if c.opts.CollapseWhitespace {
		s = strings.Join(strings.Fields(s), " ")
	} else if c.opts.Trim {
		s = strings.TrimSpace(s)
	}
	return s
}

// CleanAll cleans every string of strs in place and returns it.
func (c *Cleaner) CleanAll(strs []string) []string {
	for i, s := range strs {
		strs[i] = c.Clean(s)
	}
	return strs
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\uFEFF':
		return true
	}
	return false
}

// Plausible reports whether s looks like text rather than noise: fewer than
// 5% control characters and more than 30% letters or digits.
func Plausible(s string) bool {
	var letters, controls, total int
	for _, r := range s {
		total++
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			letters++
		case unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t':
			controls++
		}
	}
	if total == 0 {
		return true
	}
	return float64(controls)/float64(total) < 0.05 && float64(letters)/float64(total) > 0.3
}
