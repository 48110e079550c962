// Package chain provides a simulated blockchain transport: an
// escrow.ChainClient implementation that mimics submission latency and
// eventual confirmation without speaking to any real network, grounded on
// the same embedded-mock-feed, simulated-latency shape the flight and
// weather source adapters use.
package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/herdiagusthio/flightdelay-escrow/internal/escrow"
)

// MockClient simulates a settlement chain: every submitted transaction is
// accepted after a short simulated confirmation delay and assigned a
// deterministic-looking signature, nonce and timestamp. It keeps enough
// in-memory bookkeeping to answer GetTransactionStatus/GetTransactionHistory
// for what it has itself submitted.
type MockClient struct {
	skipSimulation bool

	mu       sync.Mutex
	nonce    int64
	accounts map[string]*escrow.AccountInfo
	ledger   map[string][]escrow.RawLedgerEntry
}

// NewMockClient constructs a simulated chain client. skipSimulation
// disables the artificial latency, for fast unit tests.
func NewMockClient(skipSimulation bool) *MockClient {
	return &MockClient{
		skipSimulation: skipSimulation,
		accounts:       make(map[string]*escrow.AccountInfo),
		ledger:         make(map[string][]escrow.RawLedgerEntry),
	}
}

func (c *MockClient) simulateLatency(ctx context.Context) error {
	if c.skipSimulation {
		return nil
	}
	delay := time.Duration(100+rand.Intn(250)) * time.Millisecond
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitTransaction accepts signedTx unconditionally after the simulated
// delay and returns a processed transaction carrying a fresh signature,
// nonce and timestamp — the inputs synthesizeHash needs to name the
// resulting TransactionResult.
func (c *MockClient) SubmitTransaction(ctx context.Context, signedTx []byte) (*escrow.ProcessedTransaction, error) {
	if err := c.simulateLatency(ctx); err != nil {
		return nil, fmt.Errorf("submit transaction: %w", err)
	}

	c.mu.Lock()
	c.nonce++
	nonce := c.nonce
	c.mu.Unlock()

	raw := uuid.New()
	signature := hex.EncodeToString(raw[:])
	now := time.Now().Unix()

	return &escrow.ProcessedTransaction{
		Signature:     signature,
		Nonce:         nonce,
		TimestampUnix: now,
		Status:        "confirmed",
		Raw: map[string]any{
			"payloadBytes": len(signedTx),
			"simulated":    true,
		},
	}, nil
}

// GetAccountInfo returns a synthetic, stable balance for any address it
// has not seen before, so repeated calls for the same address agree.
func (c *MockClient) GetAccountInfo(ctx context.Context, address string) (*escrow.AccountInfo, error) {
	if err := c.simulateLatency(ctx); err != nil {
		return nil, fmt.Errorf("get account info: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if info, ok := c.accounts[address]; ok {
		return info, nil
	}
	info := &escrow.AccountInfo{Balance: "1000.00", Nonce: 0}
	c.accounts[address] = info
	return info, nil
}

// GetTransactionStatus always reports confirmed: the mock client never
// leaves a submission pending past SubmitTransaction's return.
func (c *MockClient) GetTransactionStatus(ctx context.Context, hash string) (string, error) {
	if err := c.simulateLatency(ctx); err != nil {
		return "", fmt.Errorf("get transaction status: %w", err)
	}
	return "confirmed", nil
}

// RecordLedgerEntry lets the composition root seed history for an address
// ahead of a GetTransactionHistory call, since the mock chain has no real
// ledger to read from.
func (c *MockClient) RecordLedgerEntry(address string, entry escrow.RawLedgerEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger[address] = append(c.ledger[address], entry)
}

// GetTransactionHistory returns whatever entries were recorded for
// address via RecordLedgerEntry, newest first.
func (c *MockClient) GetTransactionHistory(ctx context.Context, address string) ([]escrow.RawLedgerEntry, error) {
	if err := c.simulateLatency(ctx); err != nil {
		return nil, fmt.Errorf("get transaction history: %w", err)
	}

	c.mu.Lock()
	entries := append([]escrow.RawLedgerEntry(nil), c.ledger[address]...)
	c.mu.Unlock()

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
