package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedReqID indicates a reqId that does not match prefix + positive
// integer with no leading zeros.
var ErrMalformedReqID = errors.New("malformed reqId")

// ReqID is the human-facing dense identifier of a surfaced requirement,
// e.g. "E.2.5". Uniqueness and density are scoped to (container, prefix).
type ReqID struct {
	Prefix string
	Number int
}

// String formats the reqId as prefix followed by its number.
func (r ReqID) String() string {
	return r.Prefix + strconv.Itoa(r.Number)
}

// FormatReqID validates and formats a (prefix, number) pair.
func FormatReqID(prefix string, number int) (string, error) {
	if prefix == "" || number < 1 {
		return "", ErrMalformedReqID
	}
	return ReqID{Prefix: prefix, Number: number}.String(), nil
}

// ParseReqID splits a reqId into its registered prefix and number.
// The numeric part must be a positive integer with no leading zeros.
func ParseReqID(value string) (ReqID, error) {
	value = strings.TrimSpace(value)
	for _, prefix := range Prefixes() {
		if !strings.HasPrefix(value, prefix) {
			continue
		}
		number, err := parseReqNumber(strings.TrimPrefix(value, prefix))
		if err != nil {
			return ReqID{}, err
		}
		return ReqID{Prefix: prefix, Number: number}, nil
	}
	return ReqID{}, fmt.Errorf("%w: %q has no registered prefix", ErrMalformedReqID, value)
}

func parseReqNumber(digits string) (int, error) {
	if digits == "" {
		return 0, fmt.Errorf("%w: missing number", ErrMalformedReqID)
	}
	if digits[0] == '0' {
		return 0, fmt.Errorf("%w: leading zero in %q", ErrMalformedReqID, digits)
	}
	number, err := strconv.Atoi(digits)
	if err != nil || number < 1 {
		return 0, fmt.Errorf("%w: %q is not a positive integer", ErrMalformedReqID, digits)
	}
	return number, nil
}
