package verification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hackgods/clinic-booking/internal/apperr"
)

// DefaultPhonePattern accepts Egyptian mobile numbers in E.164 form.
const DefaultPhonePattern = `^\+20[0-9]{10}$`

// PhonePolicy normalizes and validates patient phone numbers.
type PhonePolicy struct {
	re *regexp.Regexp
}

func NewPhonePolicy(pattern string) (*PhonePolicy, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPhonePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile phone pattern: %w", err)
	}
	return &PhonePolicy{re: re}, nil
}

// Normalize strips whitespace and common separators, then validates.
func (p *PhonePolicy) Normalize(raw string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')', '.':
			return -1
		}
		return r
	}, raw)
	if phone == "" {
		return "", apperr.Validation("phone is required")
	}
	if !p.re.MatchString(phone) {
		return "", apperr.Validation("invalid phone number")
	}
	return phone, nil
}

// Valid reports whether raw normalizes to an acceptable number.
func (p *PhonePolicy) Valid(raw string) bool {
	_, err := p.Normalize(raw)
	return err == nil
}
