// Package transfer talks to the external value-transfer collaborator. The
// engine treats transfers as all-or-nothing: a Receipt means the value moved,
// any error means no observable state changed on the remote side that the
// engine should account for.
package transfer

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Transferer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fundgate/pkg/domain"
	"fundgate/pkg/platform/circuit"
	"fundgate/pkg/platform/sentinel"
)

// Receipt confirms a completed transfer.
type Receipt struct {
	Reference string    `json:"reference"`
	Confirmed time.Time `json:"confirmed"`
}

// Transferer moves value between addresses. Implementations must be
// synchronous: returning a nil error asserts the transfer is final.
type Transferer interface {
	Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) (Receipt, error)
}

// trialCooldown spaces out half-open trial requests while the circuit is
// open.
const trialCooldown = 30 * time.Second

// HTTPClient calls a value-transfer service over HTTP. Transport failures
// feed a circuit breaker so a dead transfer network fails fast instead of
// holding every donation for the full client timeout. While the circuit is
// open one trial request per cooldown interval still goes through; enough
// consecutive trial successes close the circuit again.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger

	cooldown  time.Duration
	mu        sync.Mutex
	nextTrial time.Time
}

func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		breaker:  circuit.New("value-transfer"),
		logger:   logger,
		cooldown: trialCooldown,
	}
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

func (c *HTTPClient) Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) (Receipt, error) {
	if c.breaker.IsOpen() && !c.trialDue() {
		return Receipt{}, fmt.Errorf("%w: transfer circuit open", sentinel.ErrUnavailable)
	}

	body, err := json.Marshal(transferRequest{
		From:   from.String(),
		To:     to.String(),
		Amount: amount.Int64(),
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("encoding transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("building transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.recordFailure()
		return Receipt{}, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// The remote answered, so the network is healthy; the breaker only
		// tracks transport failures.
		c.recordSuccess()
		return Receipt{}, fmt.Errorf("%w: transfer service returned %d", sentinel.ErrUnconfirmed, resp.StatusCode)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		c.recordSuccess()
		return Receipt{}, fmt.Errorf("%w: decoding receipt: %v", sentinel.ErrUnconfirmed, err)
	}
	c.recordSuccess()
	return receipt, nil
}

// trialDue reports whether an open circuit owes the primary a trial request,
// claiming the next cooldown slot when it does.
func (c *HTTPClient) trialDue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Before(c.nextTrial) {
		return false
	}
	c.nextTrial = now.Add(c.cooldown)
	return true
}

func (c *HTTPClient) recordFailure() {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.mu.Lock()
		c.nextTrial = time.Now().Add(c.cooldown)
		c.mu.Unlock()
		c.logger.Warn("transfer circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *HTTPClient) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("transfer circuit closed", "breaker", c.breaker.Name())
	}
}
