package domain

import (
	"strings"
	"testing"
)

// FuzzParseAddress checks that parsing never panics on arbitrary input and
// that accepted addresses round-trip unchanged. Addresses cross the trust
// boundary verbatim, so the parser is the only line of defense.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("0xabc123")
	f.Add("  padded  ")
	f.Add("with space inside")
	f.Add("'; DROP TABLE proposals;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}
		if addr.IsZero() {
			t.Error("accepted address must not be zero")
		}
		if strings.ContainsAny(addr.String(), " \t\n") {
			t.Errorf("accepted address contains whitespace: %q", addr)
		}
		roundTrip, err := ParseAddress(addr.String())
		if err != nil {
			t.Errorf("accepted address failed round-trip: %v", err)
		}
		if roundTrip != addr {
			t.Error("round-trip changed address value")
		}
	})
}

// FuzzParseProposalID checks the URL-path parser rejects anything that is
// not a positive decimal integer.
func FuzzParseProposalID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("0")
	f.Add("-1")
	f.Add("18446744073709551615")
	f.Add("1.5")
	f.Add("one")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseProposalID(input)
		if err != nil {
			return
		}
		if id == 0 {
			t.Error("accepted id must not be zero")
		}
		roundTrip, err := ParseProposalID(id.String())
		if err != nil {
			t.Errorf("accepted id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed id value")
		}
	})
}
