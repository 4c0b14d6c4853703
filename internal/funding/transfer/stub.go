package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fundgate/pkg/domain"
)

// Stub is an in-process transferer for development and tests. It records
// every transfer it confirms.
type Stub struct {
	mu        sync.Mutex
	transfers []StubTransfer
}

type StubTransfer struct {
	From   domain.Address
	To     domain.Address
	Amount domain.Amount
}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Transfer(_ context.Context, from, to domain.Address, amount domain.Amount) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = append(s.transfers, StubTransfer{From: from, To: to, Amount: amount})
	return Receipt{Reference: uuid.NewString(), Confirmed: time.Now().UTC()}, nil
}

// Transfers returns a copy of everything confirmed so far.
func (s *Stub) Transfers() []StubTransfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StubTransfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}
