// Package slugx derives URL slugs from display names and validates
// user-chosen names against the naming rules shared by users and spaces.
package slugx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spacebox-app/spacebox/internal/common"
)

const (
	MinNameLength = 2
	MaxNameLength = 16
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	validNameRe  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// Make lowercases the name and collapses whitespace runs into single dashes.
// "My Space" -> "my-space".
func Make(name string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// MakeTemp returns a throwaway slug for a freshly created pseudo-user,
// e.g. "guest-3fa9c2d4". The suffix comes from crypto/rand.
func MakeTemp(prefix string) (string, error) {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return "", err
	}
	return prefix + "-" + suffix, nil
}

// ValidateName checks a display name against the shared naming rules:
// 2–16 characters, letters/digits/underscores only, no spaces.
// Violations are reported as common.ErrValidation with a specific reason.
func ValidateName(name string) error {
	clean := strings.TrimSpace(name)

	if len(clean) < MinNameLength || len(clean) > MaxNameLength {
		return fmt.Errorf("%w: name must be between %d and %d characters",
			common.ErrValidation, MinNameLength, MaxNameLength)
	}
	if strings.ContainsAny(clean, " \t\n") {
		return fmt.Errorf("%w: name cannot contain spaces", common.ErrValidation)
	}
	if !validNameRe.MatchString(clean) {
		return fmt.Errorf("%w: name can only contain letters, numbers, and underscores", common.ErrValidation)
	}
	return nil
}
