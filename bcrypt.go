package dealer

import (
	"errors"
	"unicode"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost matches the cost the rest of the platform uses for
// dealer credentials
const PasswordHashCost = 10

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 8

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// ValidatePasswordStrength enforces the credential policy: at least
// MinPasswordLength characters with an uppercase letter, a lowercase letter,
// and a digit. The returned error lists every rule the candidate missed.
func ValidatePasswordStrength(password string) error {
	var problems []string

	if len(password) < MinPasswordLength {
		problems = append(problems, "must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if !hasLower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if !hasDigit {
		problems = append(problems, "must contain a number")
	}

	if len(problems) == 0 {
		return nil
	}

	return goerrors.New("password does not meet requirements", goerrors.CategoryValidation).
		WithTextCode(TextCodePasswordPolicy).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			"requirements": problems,
		})
}
