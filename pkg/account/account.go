package account

import (
	"errors"
	"regexp"
	"strings"
)

var reAddress = regexp.MustCompile(`^0x[a-f0-9]{40}$`)

var ErrInvalid = errors.New("account must be a 0x-prefixed 40-char hex address")

// Normalize lower-cases an account address and checks its shape.
func Normalize(raw string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(raw))
	if !reAddress.MatchString(a) {
		return "", ErrInvalid
	}
	return a, nil
}

// Valid reports whether raw is an account address in any letter case.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

// Set is a fixed group of accounts, e.g. the administrators.
type Set map[string]struct{}

// NewSet normalizes every entry; malformed entries are skipped.
func NewSet(raw ...string) Set {
	s := make(Set, len(raw))
	for _, r := range raw {
		if a, err := Normalize(r); err == nil {
			s[a] = struct{}{}
		}
	}
	return s
}

func (s Set) Contains(raw string) bool {
	a, err := Normalize(raw)
	if err != nil {
		return false
	}
	_, ok := s[a]
	return ok
}
