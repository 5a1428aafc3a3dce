package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Language is a best-effort language guess.
type Language struct {
	Tag        language.Tag
	Confidence float64
}

// Code returns the base language subtag ("en", "de", ...), or "" when the
// language is undetermined.
func (l Language) Code() string {
	if l.Tag == language.Und {
		return ""
	}
	base, _ := l.Tag.Base()
	return base.String()
}

var scripts = []struct {
	table *unicode.RangeTable
	tag   language.Tag
}{
	{unicode.Cyrillic, language.Russian},
	{unicode.Greek, language.Greek},
	{unicode.Hiragana, language.Japanese},
	{unicode.Katakana, language.Japanese},
	{unicode.Han, language.Chinese},
	{unicode.Hangul, language.Korean},
	{unicode.Arabic, language.Arabic},
	{unicode.Hebrew, language.Hebrew},
}

var latin = []language.Tag{language.English, language.German, language.French, language.Spanish}

var diacritics = map[rune]language.Tag{
	'ä': language.German, 'ö': language.German, 'ü': language.German, 'ß': language.German,
	'è': language.French, 'ê': language.French, 'à': language.French, 'ù': language.French, 'ç': language.French,
	'á': language.Spanish, 'í': language.Spanish, 'ó': language.Spanish, 'ú': language.Spanish, 'ñ': language.Spanish,
}

var stopwords = map[string]language.Tag{
	"the": language.English, "and": language.English, "of": language.English, "is": language.English,
	"with": language.English, "for": language.English,
	"der": language.German, "die": language.German, "das": language.German, "und": language.German,
	"ist": language.German, "nicht": language.German, "mit": language.German,
	"le": language.French, "les": language.French, "et": language.French, "est": language.French,
	"une": language.French, "pour": language.French, "des": language.French,
	"el": language.Spanish, "los": language.Spanish, "las": language.Spanish, "y": language.Spanish,
	"es": language.Spanish, "por": language.Spanish, "una": language.Spanish,
}

// DetectLanguage guesses the language of the given texts.
//
// A script other than Latin that covers more than half of the letters decides
// the language directly, with that share as confidence. For Latin text,
// diacritics cast one vote and stopwords two votes for their language; a
// strict winner gets its share of the votes as confidence. Text that is still
// undecided but mostly ASCII letters is reported as English with confidence
// 0.5. Everything else is language.Und.
func DetectLanguage(texts ...string) Language {
	var letters, ascii int
	scriptCount := make(map[language.Tag]int)
	votes := make(map[language.Tag]int)
	lower := cases.Lower(language.Und)

	for _, s := range texts {
		for _, r := range s {
			if !unicode.IsLetter(r) {
				continue
			}
			letters++
			if r < unicode.MaxASCII {
				ascii++
				continue
			}
			if tag, ok := diacritics[unicode.ToLower(r)]; ok {
				votes[tag]++
				continue
			}
			for _, sc := range scripts {
				if unicode.Is(sc.table, r) {
					scriptCount[sc.tag]++
					break
				}
			}
		}
		for _, w := range strings.FieldsFunc(lower.String(s), func(r rune) bool { return !unicode.IsLetter(r) }) {
			if tag, ok := stopwords[w]; ok {
				votes[tag] += 2
			}
		}
	}
	if letters == 0 {
		return Language{Tag: language.Und}
	}

	for _, sc := range scripts {
		n := scriptCount[sc.tag]
		if 2*n > letters {
			return Language{Tag: sc.tag, Confidence: float64(n) / float64(letters)}
		}
	}

	best, total, tied := language.Und, 0, false
	for _, tag := range latin {
		v := votes[tag]
		total += v
		switch {
		case v == 0:
		case best == language.Und || v > votes[best]:
			best, tied = tag, false
		case v == votes[best]:
			tied = true
		}
	}
	if best != language.Und && !tied {
		return Language{Tag: best, Confidence: float64(votes[best]) / float64(total)}
	}
	if 5*ascii > 4*letters {
		return Language{Tag: language.English, Confidence: 0.5}
	}
	return Language{Tag: language.Und}
}
