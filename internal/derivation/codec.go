// Package derivation converts account identities into canonical derivation paths and into
// reversible, route-safe tokens used as the primary key across the session layer.
package derivation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/statewallet/wallet-session/internal/entities"
)

// Separator splits the account number from the sub-account number in a canonical path.
const Separator = "/"

var (
	errEmptyToken   = errors.New("token is empty")
	errInvalidUTF8  = errors.New("decoded value is not valid UTF-8")
	errNonCanonical = errors.New("token is not in canonical form")
)

var tokenEncoding = base64.URLEncoding.Strict()

// Format returns the canonical "<account_number>/<sub_account_number>" form of an identity.
func Format(identity entities.AccountIdentity) string {
	return strconv.FormatUint(uint64(identity.AccountNumber), 10) + Separator + strconv.FormatUint(uint64(identity.SubAccountNumber), 10)
}

// Encode turns a canonical string into a token containing only URL-safe characters. The
// transform operates on the UTF-8 bytes of the input, so multi-byte characters round-trip.
func Encode(canonical string) string {
	return tokenEncoding.EncodeToString([]byte(canonical))
}

// EncodeIdentity is Encode(Format(identity)).
func EncodeIdentity(identity entities.AccountIdentity) string {
	return Encode(Format(identity))
}

// Decode reverses Encode. Any token that Encode could not have produced yields a *DecodeError.
func Decode(token string) (string, error) {
	if token == "" {
		return "", &DecodeError{Token: token, Err: errEmptyToken}
	}

	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return "", &DecodeError{Token: token, Err: err}
	}
	if !utf8.Valid(raw) {
		return "", &DecodeError{Token: token, Err: errInvalidUTF8}
	}

	// the decoder tolerates embedded newlines, Encode never emits them
	if tokenEncoding.EncodeToString(raw) != token {
		return "", &DecodeError{Token: token, Err: errNonCanonical}
	}

	return string(raw), nil
}

// Parse splits a canonical derivation path into its identity.
func Parse(canonical string) (entities.AccountIdentity, error) {
	parts := strings.Split(canonical, Separator)
	if len(parts) != 2 {
		return entities.AccountIdentity{}, &FormatError{Input: canonical, Reason: fmt.Sprintf("expected exactly one %q separator", Separator)}
	}

	accountNumber, err := parseIndex(parts[0])
	if err != nil {
		return entities.AccountIdentity{}, &FormatError{Input: canonical, Reason: fmt.Sprintf("account number: %v", err)}
	}
	subAccountNumber, err := parseIndex(parts[1])
	if err != nil {
		return entities.AccountIdentity{}, &FormatError{Input: canonical, Reason: fmt.Sprintf("sub-account number: %v", err)}
	}

	return entities.AccountIdentity{AccountNumber: accountNumber, SubAccountNumber: subAccountNumber}, nil
}

// ParseToken decodes a route token and parses the resulting canonical path.
func ParseToken(token string) (entities.AccountIdentity, error) {
	canonical, err := Decode(token)
	if err != nil {
		return entities.AccountIdentity{}, err
	}
	return Parse(canonical)
}

// parseIndex accepts only plain decimal digits, so "+1", "-0" and " 1" are rejected.
func parseIndex(s string) (uint32, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not a non-negative integer", s)
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return uint32(n), nil
}
