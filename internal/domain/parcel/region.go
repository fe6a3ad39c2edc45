package parcel

import (
	"regexp"
	"strings"
)

var (
	reRegionChars = regexp.MustCompile(`^[A-Z0-9 _-]{1,32}$`)
	reSpaces      = regexp.MustCompile(`[\s-]+`)
)

// NormalizeRegion turns a free-form administrative area ("Lagos state",
// "lagos-state") into its routing key ("LAGOS_STATE").
func NormalizeRegion(raw string) (string, error) {
	r := strings.ToUpper(strings.TrimSpace(raw))
	if !reRegionChars.MatchString(r) {
		return "", ErrInvalidRegion
	}
	return reSpaces.ReplaceAllString(r, "_"), nil
}
