package domain

import (
	"fmt"
	"strings"
	"unicode"
)

const _reservedIDChars = "/{}%?#"

// ValidateID checks that an id can be used as a single route segment.
func ValidateID(kind, id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: %s id is required", ErrInvalidConfig, kind)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %s id %q is not a path segment", ErrInvalidConfig, kind, id)
	case strings.ContainsAny(id, _reservedIDChars):
		return fmt.Errorf("%w: %s id %q must not contain any of %q", ErrInvalidConfig, kind, id, _reservedIDChars)
	case strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		return fmt.Errorf("%w: %s id %q must not contain blanks", ErrInvalidConfig, kind, id)
	}

	return nil
}
