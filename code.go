package feedmix

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidCode is returned when a name cannot be turned into a code.
var ErrInvalidCode = errors.New("invalid code")

// CodeSeparator replaces every run of characters that are neither letters
// nor digits.
const CodeSeparator = '_'

// NormalizeCode derives an identifier-safe code from a name: lowercased,
// with runs of other characters collapsed into a single separator and no
// separators at either end. "Meat  Meal!" becomes "meat_meal".
//
// A name must start with a letter or the separator. Names breaking that,
// such as "2nd" or "(Lys)", and names whose code would be empty are
// rejected with ErrInvalidCode.
func NormalizeCode(name string) (string, error) {
	if first, _ := utf8.DecodeRuneInString(name); first != CodeSeparator && !unicode.IsLetter(first) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidCode)
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(CodeSeparator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	code := b.String()
	if !isIdentifier(code) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidCode)
	}
	return code, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == CodeSeparator, unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// resolveCode returns code when given, the normalized name otherwise.
func resolveCode(name, code string) (string, error) {
	if code != "" {
		return code, nil
	}
	return NormalizeCode(name)
}
