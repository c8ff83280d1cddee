// Package section extracts an explicit section reference from a question.
package section

import (
	"regexp"
	"strings"
)

// DefaultWords maps spelled-out section numbers to numerals.
var DefaultWords = map[string]string{
	"uno":    "1",
	"dos":    "2",
	"tres":   "3",
	"cuatro": "4",
	"cinco":  "5",
	"seis":   "6",
	"siete":  "7",
	"ocho":   "8",
	"nueve":  "9",
	"diez":   "10",
}

// sep is Unicode whitespace: the ASCII classes, information separators,
// NEL, NBSP and the rest of \p{Z}.
const sep = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`

// rule is one tagged pattern. extract gets the first capture group and
// reports whether it produced a section.
type rule struct {
	name    string
	pattern *regexp.Regexp
	extract func(match string) (string, bool)
}

// Detector evaluates its rules in order; the first rule whose pattern
// matches decides the result, even when its extractor yields nothing.
type Detector struct {
	rules []rule
}

// NewDetector builds a detector with the given word table.
func NewDetector(words map[string]string) *Detector {
	table := make(map[string]string, len(words))
	for k, v := range words {
		table[strings.ToLower(k)] = v
	}

	return &Detector{rules: []rule{
		{
			name:    "numeral",
			pattern: regexp.MustCompile(`secci[oó]n` + sep + `(\p{Nd}+)`),
			extract: func(m string) (string, bool) { return m, true },
		},
		{
			name:    "word",
			pattern: regexp.MustCompile(`secci[oó]n` + sep + `([\p{L}\p{N}_]+)`),
			extract: func(m string) (string, bool) {
				v, ok := table[m]
				return v, ok
			},
		},
	}}
}

// Default is the detector with DefaultWords.
var Default = NewDetector(DefaultWords)

// Detect returns the section referenced by query, if any.
func Detect(query string) (string, bool) {
	return Default.Detect(query)
}

// Detect never fails: no reference means no filter.
func (d *Detector) Detect(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, r := range d.rules {
		m := r.pattern.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		return r.extract(m[1])
	}
	return "", false
}
