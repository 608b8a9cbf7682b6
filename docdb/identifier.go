package docdb

import (
	"github.com/pkg/errors"
	"regexp"
)

var ErrInvalidIdentifier = errors.New("invalid identifier")

var identifierRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidateIdentifier ensures a table or field name is safe to be formatted
// into a query. Names must start with a letter or an underscore and contain
// only letters, digits and underscores.
func ValidateIdentifier(name string) error {
	if !identifierRegexp.MatchString(name) {
		return errors.Wrapf(ErrInvalidIdentifier, "[%s]", name)
	}

	return nil
}
