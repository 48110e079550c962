package escrow

import "context"

// ChainClient is the chain-agnostic transport the Adapter translates
// to and from. A concrete implementation speaks one chain's wire format;
// the composition root owns and injects it explicitly rather than reaching
// for a lazy singleton chain client.
type ChainClient interface {
	SubmitTransaction(ctx context.Context, signedTx []byte) (*ProcessedTransaction, error)
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)
	GetTransactionStatus(ctx context.Context, hash string) (string, error)
	GetTransactionHistory(ctx context.Context, address string) ([]RawLedgerEntry, error)
}

// ProcessedTransaction is the chain client's raw response shape, which
// sometimes omits a top-level hash.
type ProcessedTransaction struct {
	Signature     string
	Nonce         int64
	TimestampUnix int64
	Status        string
	Raw           map[string]any
}

// AccountInfo is the balance/nonce pair getAccountInfo returns.
type AccountInfo struct {
	Balance string // decimal string
	Nonce   int64
}

// RawLedgerEntry is one unparsed entry from a chain's transaction history,
// keyed by the signer address the history was queried for.
type RawLedgerEntry struct {
	ID            string
	ClassName     string
	Amount        string
	Sender        string
	Receiver      string
	Signer        string
	TimestampISO  string
	Signature     string
	Nonce         int64
	TimestampUnix int64
	EscrowID      string
}
