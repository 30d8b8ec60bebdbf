package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRe      = regexp.MustCompile(`(?i)email`)
	phoneRe      = regexp.MustCompile(`(?i)phone`)
	ssnRe        = regexp.MustCompile(`(?i)ssn|social_security`)
	creditCardRe = regexp.MustCompile(`(?i)credit_card|card_number`)
	fullMaskRe   = regexp.MustCompile(`(?i)password|secret|token|api_key|access_key|private_key`)
)

// DataMasker masks sensitive tool parameters before they are logged
type DataMasker struct {
	sensitiveKeys []string
}

func NewDataMasker(sensitiveKeys []string) *DataMasker {
	return &DataMasker{sensitiveKeys: sensitiveKeys}
}

// MaskParams returns a copy of params with sensitive values masked. Values
// that look like email addresses are masked whatever their key.
func (m *DataMasker) MaskParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	masked := make(map[string]string, len(params))
	for key, val := range params {
		switch {
		case m.isSensitive(key):
			masked[key] = m.maskValue(key, val)
		case emailValueRe.MatchString(val):
			masked[key] = emailValueRe.ReplaceAllStringFunc(val, maskEmail)
		default:
			masked[key] = val
		}
	}
	return masked
}

func (m *DataMasker) isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range m.sensitiveKeys {
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	// Also check built-in patterns
	return emailRe.MatchString(key) || phoneRe.MatchString(key) ||
		ssnRe.MatchString(key) || creditCardRe.MatchString(key) || fullMaskRe.MatchString(key)
}

func (m *DataMasker) maskValue(key, val string) string {
	lower := strings.ToLower(key)
	switch {
	case emailRe.MatchString(lower):
		return maskEmail(val)
	case phoneRe.MatchString(lower):
		return maskPhone(val)
	case ssnRe.MatchString(lower):
		return "***-**-****"
	case creditCardRe.MatchString(lower):
		return maskCreditCard(val)
	default:
		return "***"
	}
}

// maskEmail: "john.doe@example.com" → "jo***@***.com"
func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***"
	}
	local := parts[0]
	domain := parts[1]

	// Show first 2 chars of local
	visible := 2
	if len(local) < visible {
		visible = len(local)
	}
	maskedLocal := local[:visible] + "***"

	// Mask domain, keep extension
	domainParts := strings.Split(domain, ".")
	ext := domainParts[len(domainParts)-1]
	return fmt.Sprintf("%s@***.%s", maskedLocal, ext)
}

// maskPhone: any phone → "***-***-1234" (show last 4)
func maskPhone(phone string) string {
	digits := onlyDigits(phone)
	if len(digits) < 4 {
		return "***-***-****"
	}
	return "***-***-" + digits[len(digits)-4:]
}

// maskCreditCard: "4111111111111111" → "****-****-****-1111"
func maskCreditCard(cc string) string {
	digits := onlyDigits(cc)
	if len(digits) < 4 {
		return "****-****-****-****"
	}
	return "****-****-****-" + digits[len(digits)-4:]
}

func onlyDigits(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}
