package near

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

	ErrInvalidAccountID = errors.New("invalid account id")
)

// ValidateAccountID checks an account id against the protocol naming rules.
func ValidateAccountID(id string) error {
	if len(id) < 2 || len(id) > 64 {
		return fmt.Errorf("%w: %q must be between 2 and 64 characters", ErrInvalidAccountID, id)
	}

	if !accountIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountID, id)
	}

	return nil
}
