package security

import (
	"regexp"
	"strings"
)

// DefaultPIIKeywords flag messages that talk about secrets.
var DefaultPIIKeywords = []string{"password", "ssn", "credit card", "api key", "secret"}

var (
	emailValueRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	cardValueRe  = regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)
)

// PIIDetector checks text for sensitive keywords and values
type PIIDetector struct {
	keywords []string
}

func NewPIIDetector(keywords []string) *PIIDetector {
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &PIIDetector{keywords: lower}
}

// Detect returns true and what matched: the keyword, "email" or
// "card_number".
func (d *PIIDetector) Detect(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true, kw
		}
	}
	if emailValueRe.MatchString(text) {
		return true, "email"
	}
	if cardValueRe.MatchString(text) {
		return true, "card_number"
	}
	return false, ""
}
