package types

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRe is deliberately loose: the server is the authority, this only
// rejects input that cannot possibly be an address so we skip the round-trip.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail rejects obviously malformed addresses before any network call.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("email %q is not a valid address", email)
	}
	return nil
}

// ValidateConsent enforces the consents that must be granted before a lead
// can be captured. Marketing consent is optional; terms are not.
func ValidateConsent(c Consent) error {
	if !c.Terms {
		return fmt.Errorf("terms consent is required")
	}
	return nil
}

// ValidateIDPresent rejects empty identifiers with a field-specific message.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}
