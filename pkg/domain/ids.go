package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is the opaque, globally unique key identifying a participant.
// The engine never interprets it; the value-transfer collaborator owns the
// addressing scheme.
type Address string

// ParseAddress validates an address at trust boundaries. Direct casting
// bypasses validation.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("address must not be empty")
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", fmt.Errorf("address must not contain whitespace")
	}
	return Address(s), nil
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ""
}

func (a Address) String() string {
	return string(a)
}

// ProposalID identifies one funding campaign. IDs are assigned monotonically
// starting at 1 and are never reused.
type ProposalID uint64

// ParseProposalID converts a URL or payload value into a ProposalID.
func ParseProposalID(s string) (ProposalID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid proposal id %q", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("proposal id must be positive")
	}
	return ProposalID(n), nil
}

// IsZero reports whether the id is unset.
func (p ProposalID) IsZero() bool {
	return p == 0
}

func (p ProposalID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}
