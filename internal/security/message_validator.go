package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const DefaultMaxMessageLength = 2000

// injectionPatterns catch attempts to override the agent's instructions or to
// smuggle executable payloads through the chat box.
var injectionPatterns = []*regexp.Regexp{
	// Prompt injection
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
	regexp.MustCompile(`(?i)change\s+context\s*:`),
	regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(in\s+)?developer\s+mode`),
	regexp.MustCompile(`(?i)reveal\s+(your\s+)?(system\s+)?prompt`),
	regexp.MustCompile(`(?i)"flow"\s*:\s*"`),

	// Code execution / file access
	regexp.MustCompile(`/etc/passwd`),
	regexp.MustCompile(`/etc/shadow`),
	regexp.MustCompile(`(?i)__import__\s*\(`),
	regexp.MustCompile(`(?i)os\.system`),
	regexp.MustCompile(`(?i)<script\b`),
}

// MessageValidator screens chat messages before they reach the agent.
type MessageValidator struct {
	maxLength int
}

func NewMessageValidator(maxLength int) *MessageValidator {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return &MessageValidator{maxLength: maxLength}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// Validate checks length in characters and known injection patterns.
func (v *MessageValidator) Validate(message string) ValidationResult {
	if strings.TrimSpace(message) == "" {
		return ValidationResult{Valid: false, Message: "message cannot be empty"}
	}

	if n := utf8.RuneCountInString(message); n > v.maxLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("message too long: %d chars (max %d)", n, v.maxLength),
		}
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(message) {
			return ValidationResult{
				Valid:   false,
				Message: "message rejected: it looks like an attempt to change the assistant's instructions",
			}
		}
	}

	return ValidationResult{Valid: true, Message: "ok"}
}
