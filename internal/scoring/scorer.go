// Package scoring rates prompt quality with fixed text heuristics. The score
// is crude by intent; what matters is that it is reproducible.
package scoring

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	goalPattern       = regexp.MustCompile(`(?i)\b(goal|objective|want|need|aim|purpose)\b`)
	reasonPattern     = regexp.MustCompile(`(?i)\b(because|since|for|to|in order to)\b`)
	constraintPattern = regexp.MustCompile(`(?i)\b(without|except|only|must|should|cannot)\b`)
	examplePattern    = regexp.MustCompile(`(?i)\b(example|such as|like|for instance)\b`)
	digitPattern      = regexp.MustCompile(`[0-9]`)
)

const maxScore = 100

// Breakdown holds the four sub-scores.
type Breakdown struct {
	Clarity      int `json:"clarity"`
	Structure    int `json:"structure"`
	Completeness int `json:"completeness"`
	Specificity  int `json:"specificity"`
}

// Total sums the sub-scores and caps the result at 100.
func (b Breakdown) Total() int {
	return min(maxScore, b.Clarity+b.Structure+b.Completeness+b.Specificity)
}

// Result compares a prompt before and after rewriting.
type Result struct {
	Before      int `json:"before"`
	After       int `json:"after"`
	Improvement int `json:"improvement"`
}

// Score rates text in [0,100].
func Score(text string) int {
	return Analyze(text).Total()
}

// Compare scores both texts. Improvement may be negative.
func Compare(before, after string) Result {
	b, a := Score(before), Score(after)
	return Result{Before: b, After: a, Improvement: a - b}
}

// Analyze returns the sub-scores for text.
func Analyze(text string) Breakdown {
	return Breakdown{
		Clarity:      clarity(text),
		Structure:    structure(text),
		Completeness: min(15, len(strings.Fields(text))),
		Specificity:  specificity(text),
	}
}

func clarity(text string) int {
	s := 0
	if goalPattern.MatchString(text) {
		s += 10
	}
	if reasonPattern.MatchString(text) {
		s += 8
	}
	if constraintPattern.MatchString(text) {
		s += 7
	}
	return s
}

func structure(text string) int {
	n := countSentences(text)
	if n == 0 {
		return 0
	}
	s := min(10, n*3)
	if float64(utf8.RuneCountInString(text))/float64(n) > 50 {
		s += 5
	}
	return s
}

func countSentences(text string) int {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func specificity(text string) int {
	s := 0
	if digitPattern.MatchString(text) {
		s += 5
	}
	if strings.ContainsAny(text, "\"'`") {
		s += 5
	}
	if examplePattern.MatchString(text) {
		s += 5
	}
	return s
}
