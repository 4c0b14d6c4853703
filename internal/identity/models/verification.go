package models

import (
	"time"

	"fundgate/pkg/domain"
)

// Verification records that a participant identity completed the gating
// step required to create proposals. Records are created implicitly on the
// first submission, never deleted, and never revert to unverified.
type Verification struct {
	Address domain.Address

	// Proof is an opaque reference to the verification document (for
	// example an IPFS CID). The engine stores it verbatim and never
	// inspects it.
	Proof string

	VerifiedAt time.Time
}
