package commands

import (
	"fmt"
	"unicode/utf8"

	"tradeflow/internal/pkg/errs"
)

// Column widths of the identifiers commands carry into storage.
const (
	maxIdentifierLength = 64
	maxRoleLength       = 32
)

// checkLength rejects a value longer than limit characters.
func checkLength(name, value string, limit int) error {
	if n := utf8.RuneCountInString(value); n > limit {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%d characters exceeds %d", n, limit))
	}
	return nil
}
