package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CodeLength is the number of characters in a game code.
const CodeLength = 6

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ValidationError is returned when user input is rejected before it is sent to the server.
type ValidationError struct {
	// Field is the name of the rejected input.
	Field string
	// Reason describes why the input is invalid.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %v: %v", e.Field, e.Reason)
}

// NormalizeCode trims whitespace from the code and makes it upper-case.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode ensures the code is six letters or digits.
func ValidateCode(code string) error {
	if n := len(code); n != CodeLength {
		return &ValidationError{
			Field:  "game code",
			Reason: fmt.Sprintf("must be %d characters, got %d", CodeLength, n),
		}
	}
	for _, r := range code {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		default:
			return &ValidationError{
				Field:  "game code",
				Reason: fmt.Sprintf("must only contain letters and digits, got %q", r),
			}
		}
	}
	return nil
}

// NormalizePlayerName puts the name in unicode normalization form C and trims surrounding whitespace.
func NormalizePlayerName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// ValidatePlayerName ensures the name has some text that is not whitespace.
func ValidatePlayerName(name string) error {
	if len(NormalizePlayerName(name)) == 0 {
		return &ValidationError{
			Field:  "player name",
			Reason: "required",
		}
	}
	return nil
}

// GenerateCode creates a random game code of upper-case letters and digits.
func GenerateCode() (string, error) {
	max := big.NewInt(int64(len(codeCharset)))
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating game code: %w", err)
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}
