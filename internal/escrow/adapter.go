// Package escrow exposes a chain-agnostic escrow API: hash normalization,
// amount conversion, transaction-history parsing, and the create/fulfil/
// release lifecycle calls the Policy Lifecycle Monitor drives.
package escrow

import (
	"context"
	"fmt"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// Adapter is the chain-agnostic escrow API the rest of the system depends
// on; Client is injected explicitly by the composition root.
type Adapter struct {
	Client ChainClient
}

// NewAdapter wires an Adapter over a concrete ChainClient.
func NewAdapter(client ChainClient) *Adapter {
	return &Adapter{Client: client}
}

// CreateEscrow generates an internalId, builds the chain-specific create
// object from params, submits it, and returns the normalized result.
func (a *Adapter) CreateEscrow(ctx context.Context, params domain.EscrowParams, signedTx []byte) (*domain.Escrow, *domain.TransactionResult, error) {
	escrow := &domain.Escrow{
		InternalID:    domain.NewInternalID(),
		Amount:        params.Amount,
		ExpiresAtUTC:  params.ExpiresAtUTC,
		RecipientAddr: params.RecipientAddress,
		Purpose:       params.Purpose,
		Status:        domain.EscrowStatusPending,
	}

	result, err := a.submit(ctx, signedTx, escrow.InternalID)
	if err != nil {
		return escrow, nil, fmt.Errorf("%w: %v", domain.ErrChainSubmission, err)
	}

	escrow.TxHash = result.Hash
	return escrow, result, nil
}

// PrepareCreateEscrow builds the chain-specific create object without
// signing or submitting it, for flows where the signer is external (a
// non-custodial wallet). The caller signs the returned object and completes
// the dance with SubmitSignedTransaction.
func (a *Adapter) PrepareCreateEscrow(ctx context.Context, params domain.EscrowParams) (*domain.Escrow, *domain.UnsignedTransaction, error) {
	escrow := &domain.Escrow{
		InternalID:    domain.NewInternalID(),
		Amount:        params.Amount,
		ExpiresAtUTC:  params.ExpiresAtUTC,
		RecipientAddr: params.RecipientAddress,
		Purpose:       params.Purpose,
		Status:        domain.EscrowStatusPending,
	}

	unsigned := &domain.UnsignedTransaction{
		InternalID:       escrow.InternalID,
		Amount:           params.Amount,
		ExpiresAtUTC:     params.ExpiresAtUTC,
		RecipientAddress: params.RecipientAddress,
		Purpose:          params.Purpose,
		VerificationKey:  params.VerificationKey,
	}
	return escrow, unsigned, nil
}

// SubmitSignedTransaction completes the non-custodial create dance started
// by PrepareCreateEscrow: it submits the externally-signed payload and
// stamps the escrow with the resulting hash.
func (a *Adapter) SubmitSignedTransaction(ctx context.Context, e *domain.Escrow, signedTx []byte) (*domain.TransactionResult, error) {
	result, err := a.submit(ctx, signedTx, e.InternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChainSubmission, err)
	}
	e.TxHash = result.Hash
	return result, nil
}

// FulfilEscrow transitions the escrow to FULFILLED after a successful
// chain submission.
func (a *Adapter) FulfilEscrow(ctx context.Context, e *domain.Escrow, signedTx []byte) (*domain.TransactionResult, error) {
	result, err := a.submit(ctx, signedTx, e.InternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChainSubmission, err)
	}
	if err := e.Fulfil(); err != nil {
		return result, err
	}
	return result, nil
}

// ReleaseEscrow transitions the escrow to RELEASED after a successful
// chain submission, the payout path the settlement monitor drives.
func (a *Adapter) ReleaseEscrow(ctx context.Context, e *domain.Escrow, signedTx []byte) (*domain.TransactionResult, error) {
	result, err := a.submit(ctx, signedTx, e.InternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChainSubmission, err)
	}
	if err := e.Release(); err != nil {
		return result, err
	}
	return result, nil
}

// submit wraps ChainClient.SubmitTransaction and applies hash
// normalization to whatever the chain returned.
func (a *Adapter) submit(ctx context.Context, signedTx []byte, fallbackSeed string) (*domain.TransactionResult, error) {
	processed, err := a.Client.SubmitTransaction(ctx, signedTx)
	if err != nil {
		return nil, err
	}

	hash := synthesizeHash(processed.Signature, processed.Nonce, processed.TimestampUnix, fallbackSeed)
	return &domain.TransactionResult{
		Hash:        hash,
		Status:      processed.Status,
		RawResponse: processed.Raw,
	}, nil
}

// GetAccountInfo proxies to the chain client.
func (a *Adapter) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	return a.Client.GetAccountInfo(ctx, address)
}

// GetTransactionStatus proxies to the chain client.
func (a *Adapter) GetTransactionStatus(ctx context.Context, hash string) (string, error) {
	return a.Client.GetTransactionStatus(ctx, hash)
}

// GetTransactionHistory fetches and parses address's ledger entries,
// newest-first, paginated with 1-based indexing.
func (a *Adapter) GetTransactionHistory(ctx context.Context, address string, page, pageSize int) ([]domain.ParsedTransaction, error) {
	raw, err := a.Client.GetTransactionHistory(ctx, address)
	if err != nil {
		return nil, err
	}

	parsed := make([]domain.ParsedTransaction, 0, len(raw))
	for _, entry := range raw {
		parsed = append(parsed, parseEntry(entry, address))
	}

	return paginate(parsed, page, pageSize), nil
}
