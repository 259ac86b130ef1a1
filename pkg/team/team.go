// Package team defines the identity of a playground tenant
// and the shape of its credentials.
package team

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
)

const (
	// MaxNameLength is the longest team name accepted.
	MaxNameLength = 16

	// PasscodeLength is the length of every passcode, generated or supplied.
	PasscodeLength = 8

	// prefix of cluster resources and session subjects.
	resourcePrefix = "t-"

	passcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	ErrInvalidName     = errors.New("invalid team name")
	ErrInvalidPasscode = errors.New("invalid passcode")
)

var (
	reName     = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]{0,14}[a-z0-9])?$`)
	rePasscode = regexp.MustCompile(`^[A-Z0-9]{8}$`)
)

// ValidateName checks that name is a lowercase alphanumeric-with-hyphens string,
// at most 16 characters, which starts and ends with an alphanumeric character.
func ValidateName(name string) error {
	if !reName.MatchString(name) {
		return fmt.Errorf(
			"%w: %q: use up to %d lowercase letters, digits and hyphens, not starting or ending with hyphen",
			ErrInvalidName, name, MaxNameLength,
		)
	}
	return nil
}

// ValidatePasscode checks that p is exactly 8 uppercase alphanumeric characters.
func ValidatePasscode(p string) error {
	if !rePasscode.MatchString(p) {
		return fmt.Errorf(
			"%w: passcode should be %d uppercase letters or digits",
			ErrInvalidPasscode, PasscodeLength,
		)
	}
	return nil
}

// NewPasscode generates a passcode from random source r.
//
// If r is nil, crypto/rand.Reader is used.
func NewPasscode(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	max := big.NewInt(int64(len(passcodeAlphabet)))
	buf := make([]byte, PasscodeLength)
	for i := range buf {
		n, err := rand.Int(r, max)
		if err != nil {
			return "", err
		}
		buf[i] = passcodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ResourceName is the name of cluster resources which belong to the team.
//
// It is also the subject which a session of the team is bound to.
func ResourceName(team string) string {
	return resourcePrefix + team
}
