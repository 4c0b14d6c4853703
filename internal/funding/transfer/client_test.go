package transfer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundgate/pkg/platform/sentinel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPClientTransfer(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"reference":"tx-42","confirmed":"2026-03-01T12:00:00Z"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, discardLogger())
	receipt, err := client.Transfer(context.Background(), "0xdonor", "0xtreasury", 500)
	require.NoError(t, err)

	assert.Equal(t, "tx-42", receipt.Reference)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), receipt.Confirmed)
	assert.JSONEq(t, `{"from":"0xdonor","to":"0xtreasury","amount":500}`, gotBody)
}

func TestHTTPClientRejectedTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, discardLogger())
	_, err := client.Transfer(context.Background(), "0xdonor", "0xtreasury", 500)
	assert.ErrorIs(t, err, sentinel.ErrUnconfirmed)
}

func TestHTTPClientMalformedReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, discardLogger())
	_, err := client.Transfer(context.Background(), "0xdonor", "0xtreasury", 500)
	assert.ErrorIs(t, err, sentinel.ErrUnconfirmed)
}

func TestHTTPClientCircuitOpensOnTransportFailures(t *testing.T) {
	// A server that is already gone produces connection errors.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewHTTPClient(url, discardLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.Transfer(ctx, "0xdonor", "0xtreasury", 500)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	}

	assert.True(t, client.breaker.IsOpen())

	// With the circuit open the client fails fast without dialing.
	_, err := client.Transfer(ctx, "0xdonor", "0xtreasury", 500)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestHTTPClientCircuitRecoversViaTrials(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := down.URL
	down.Close()

	client := NewHTTPClient(url, discardLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.Transfer(ctx, "0xdonor", "0xtreasury", 500)
		require.ErrorIs(t, err, sentinel.ErrUnavailable)
	}
	require.True(t, client.breaker.IsOpen())

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reference":"tx-ok","confirmed":"2026-03-01T12:00:00Z"}`))
	}))
	defer healthy.Close()

	// The collaborator comes back; trial requests pass through the open
	// circuit and close it again after enough consecutive successes.
	client.baseURL = healthy.URL
	client.cooldown = 0
	client.nextTrial = time.Time{}

	for i := 0; i < 3; i++ {
		receipt, err := client.Transfer(ctx, "0xdonor", "0xtreasury", 500)
		require.NoError(t, err)
		assert.Equal(t, "tx-ok", receipt.Reference)
	}
	assert.False(t, client.breaker.IsOpen())
}
