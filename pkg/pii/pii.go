// Package pii detects sensitive personal data in prompt text.
//
// Recognition is a pluggable capability: the Scanner delegates to a
// Recognizer and only guarantees ordering and the fixed category set.
// The default RegexRecognizer covers telephone numbers, email addresses,
// payment card numbers (Luhn-checked) and US SSN-style government IDs.
package pii

import (
	"errors"
	"regexp"
	"sort"
)

// Category identifies one kind of detected PII.
type Category string

const (
	CategoryPhone        Category = "phone"
	CategoryEmail        Category = "email"
	CategoryCreditCard   Category = "credit_card"
	CategoryGovernmentID Category = "government_id"
)

// Categories is the fixed set the gateway scans for.
var Categories = []Category{CategoryPhone, CategoryEmail, CategoryCreditCard, CategoryGovernmentID}

// Finding is one detected PII instance. Start and End are byte offsets
// into the original text (End exclusive).
type Finding struct {
	Category   Category `json:"category"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Confidence float64  `json:"confidence"`
}

// Recognizer is the external entity-recognition capability. Findings may
// overlap and arrive in any order; the Scanner sorts them.
type Recognizer interface {
	Recognize(text string) ([]Finding, error)
}

// ErrRecognizerUnavailable means the recognition capability cannot run.
// The gateway treats this as fatal and refuses to forward unscanned text.
var ErrRecognizerUnavailable = errors.New("entity recognizer unavailable")

// Scanner finds PII in text using an injected Recognizer.
type Scanner struct {
	rec Recognizer
}

// NewScanner creates a Scanner. A nil recognizer is a fatal configuration
// error: the pipeline fails closed rather than skipping the scan.
func NewScanner(rec Recognizer) (*Scanner, error) {
	if rec == nil {
		return nil, ErrRecognizerUnavailable
	}
	return &Scanner{rec: rec}, nil
}

// Scan returns all findings in text, ordered by start offset ascending.
// Overlapping findings are reported as distinct entries; merging for
// redaction is the redactor's responsibility. Scan never mutates text.
func (s *Scanner) Scan(text string) ([]Finding, error) {
	findings, err := s.rec.Recognize(text)
	if err != nil {
		return nil, err
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Start != findings[j].Start {
			return findings[i].Start < findings[j].Start
		}
		return findings[i].End < findings[j].End
	})
	return findings, nil
}

var (
	phonePattern = regexp.MustCompile(`\b(?:\+?1[\s.-]?)?(?:\(\d{3}\)[\s.-]?|\d{3}[\s.-])?\d{3}[\s.-]\d{4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	cardPattern  = regexp.MustCompile(`\b\d(?:[ -]?\d){12,18}\b`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
)

// Per-category confidence of the regex recognizer. Email and Luhn-checked
// card matches are near-certain; phone and SSN patterns can collide with
// other numeric formats.
const (
	confidenceEmail = 1.0
	confidenceCard  = 1.0
	confidencePhone = 0.7
	confidenceSSN   = 0.85
)

// RegexRecognizer is the default, dependency-free Recognizer.
type RegexRecognizer struct{}

// NewRegexRecognizer creates the default recognizer.
func NewRegexRecognizer() *RegexRecognizer {
	return &RegexRecognizer{}
}

// Recognize scans text with the built-in patterns. Card candidates must
// also pass a Luhn check to be reported.
func (r *RegexRecognizer) Recognize(text string) ([]Finding, error) {
	var findings []Finding

	for _, m := range emailPattern.FindAllStringIndex(text, -1) {
		findings = append(findings, Finding{CategoryEmail, m[0], m[1], confidenceEmail})
	}
	for _, m := range phonePattern.FindAllStringIndex(text, -1) {
		findings = append(findings, Finding{CategoryPhone, m[0], m[1], confidencePhone})
	}
	for _, m := range ssnPattern.FindAllStringIndex(text, -1) {
		findings = append(findings, Finding{CategoryGovernmentID, m[0], m[1], confidenceSSN})
	}
	for _, m := range cardPattern.FindAllStringIndex(text, -1) {
		if luhnValid(text[m[0]:m[1]]) {
			findings = append(findings, Finding{CategoryCreditCard, m[0], m[1], confidenceCard})
		}
	}

	return findings, nil
}

// luhnValid reports whether the digits in s (separators ignored) form a
// valid Luhn checksum of plausible card length.
func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// CategorySet returns the distinct categories present in findings, in
// first-seen order.
func CategorySet(findings []Finding) []string {
	seen := make(map[Category]bool, len(findings))
	var out []string
	for _, f := range findings {
		if !seen[f.Category] {
			seen[f.Category] = true
			out = append(out, string(f.Category))
		}
	}
	return out
}
