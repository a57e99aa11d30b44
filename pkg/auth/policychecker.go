package auth

import (
	"regexp"

	"github.com/aigovpro/authcore/pkg/errors"
)

// PasswordPolicy defines the requirements for password complexity
type PasswordPolicy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
	// DisallowCommonWords rejects passwords containing common substrings
	// like "admin" or "qwerty". Off by default: it also rejects otherwise
	// strong passphrases that happen to contain them.
	DisallowCommonWords bool
	// MaxRepeatedChars rejects runs of the same character of this length
	// or longer (0 disables the check)
	MaxRepeatedChars int
}

// DefaultPasswordPolicy returns the default password policy
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:           12,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequireDigit:        true,
		RequireSpecialChar:  true,
		DisallowCommonWords: false,
		MaxRepeatedChars:    3,
	}
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
	commonRe  = regexp.MustCompile(`(?i)(?:admin|qwerty|1234|123456|letmein)`)
)

// PolicyChecker validates passwords against a PasswordPolicy
type PolicyChecker struct {
	policy *PasswordPolicy
}

// NewPolicyChecker creates a checker for the given policy (nil uses defaults)
func NewPolicyChecker(policy *PasswordPolicy) *PolicyChecker {
	if policy == nil {
		policy = DefaultPasswordPolicy()
	}
	return &PolicyChecker{policy: policy}
}

// Check verifies that a password meets the complexity requirements.
// Violations are returned as PASSWORD_COMPLEXITY errors with a message
// specific enough for the caller to render.
func (c *PolicyChecker) Check(password string) error {
	p := c.policy

	if len(password) < p.MinLength {
		return errors.Newf(errors.ErrCodePasswordComplexity,
			"Password must be at least %d characters long", p.MinLength)
	}

	if p.RequireUppercase && !upperRe.MatchString(password) {
		return errors.New(errors.ErrCodePasswordComplexity,
			"Password must contain at least one uppercase letter (A-Z)")
	}

	if p.RequireLowercase && !lowerRe.MatchString(password) {
		return errors.New(errors.ErrCodePasswordComplexity,
			"Password must contain at least one lowercase letter (a-z)")
	}

	if p.RequireDigit && !digitRe.MatchString(password) {
		return errors.New(errors.ErrCodePasswordComplexity,
			"Password must contain at least one digit (0-9)")
	}

	if p.RequireSpecialChar && !specialRe.MatchString(password) {
		return errors.New(errors.ErrCodePasswordComplexity,
			"Password must contain at least one special character (!@#$%^&* etc.)")
	}

	if p.MaxRepeatedChars > 0 && hasRepeatedRun(password, p.MaxRepeatedChars) {
		return errors.Newf(errors.ErrCodePasswordComplexity,
			"Password cannot contain %d or more repeated characters", p.MaxRepeatedChars)
	}

	if p.DisallowCommonWords && commonRe.MatchString(password) {
		return errors.New(errors.ErrCodePasswordComplexity,
			"Password contains common or predictable patterns")
	}

	return nil
}

// Requirements describes the policy for display to end users
func (c *PolicyChecker) Requirements() map[string]interface{} {
	return map[string]interface{}{
		"min_length":    c.policy.MinLength,
		"uppercase":     c.policy.RequireUppercase,
		"lowercase":     c.policy.RequireLowercase,
		"digits":        c.policy.RequireDigit,
		"special_chars": c.policy.RequireSpecialChar,
		"example":       "MySecureP@ss123",
	}
}

func hasRepeatedRun(s string, maxRun int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= maxRun {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
