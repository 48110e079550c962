package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EscrowPurpose classifies what an escrow was opened for.
type EscrowPurpose string

const (
	EscrowPurposeDeposit    EscrowPurpose = "DEPOSIT"
	EscrowPurposeWithdraw   EscrowPurpose = "WITHDRAW"
	EscrowPurposeStake      EscrowPurpose = "STAKE"
	EscrowPurposeBond       EscrowPurpose = "BOND"
	EscrowPurposeCollateral EscrowPurpose = "COLLATERAL"
	EscrowPurposeInvestment EscrowPurpose = "INVESTMENT"
	EscrowPurposeReserve    EscrowPurpose = "RESERVE"
	EscrowPurposePool       EscrowPurpose = "POOL"
	EscrowPurposeCustom     EscrowPurpose = "CUSTOM"
)

// EscrowStatus is the lifecycle state of an Escrow.
type EscrowStatus string

const (
	EscrowStatusPending   EscrowStatus = "PENDING"
	EscrowStatusFulfilled EscrowStatus = "FULFILLED"
	EscrowStatusReleased  EscrowStatus = "RELEASED"
	EscrowStatusExpired   EscrowStatus = "EXPIRED"
	EscrowStatusCancelled EscrowStatus = "CANCELLED"
)

// terminal reports whether a status is absorbing: FULFILLED->RELEASED,
// EXPIRED and CANCELLED never transition further.
func (s EscrowStatus) terminal() bool {
	switch s {
	case EscrowStatusReleased, EscrowStatusExpired, EscrowStatusCancelled:
		return true
	default:
		return false
	}
}

// EscrowParams is the named, typed replacement for the dynamic any-shaped
// configuration objects a chain-generic escrow create call would otherwise
// take. Adapters translate this into their chain-specific wire shape.
type EscrowParams struct {
	Amount          int64 // minor units (cents)
	ExpiresAtUTC    time.Time
	RecipientAddress string
	Purpose         EscrowPurpose
	VerificationKey string // optional
}

// Escrow is a chain-settled, time-bounded commitment of funds.
type Escrow struct {
	InternalID      string
	BlockchainID    string
	Amount          int64
	ExpiresAtUTC    time.Time
	RecipientAddr   string
	Purpose         EscrowPurpose
	Status          EscrowStatus
	TxHash          string
	BlockNumber     int64
	CreatedAtUTC    time.Time
}

// NewInternalID generates a fresh internal escrow identifier, always
// present even before the chain acknowledges the transaction.
func NewInternalID() string {
	return "esc_" + uuid.NewString()
}

// Fulfil transitions a PENDING escrow to FULFILLED.
func (e *Escrow) Fulfil() error {
	if e.Status != EscrowStatusPending {
		return fmt.Errorf("%w: escrow %s is %s, not PENDING", ErrEscrowStateViolation, e.InternalID, e.Status)
	}
	e.Status = EscrowStatusFulfilled
	return nil
}

// Release transitions a FULFILLED escrow to RELEASED, the terminal success
// path a payout reaches.
func (e *Escrow) Release() error {
	if e.Status != EscrowStatusFulfilled {
		return fmt.Errorf("%w: escrow %s is %s, not FULFILLED", ErrEscrowStateViolation, e.InternalID, e.Status)
	}
	e.Status = EscrowStatusReleased
	return nil
}

// ExpireIfDue transitions a non-terminal escrow past its expiry to EXPIRED.
func (e *Escrow) ExpireIfDue(now time.Time) bool {
	if e.Status.terminal() {
		return false
	}
	if now.Before(e.ExpiresAtUTC) {
		return false
	}
	e.Status = EscrowStatusExpired
	return true
}

// Cancel transitions a non-terminal escrow to CANCELLED.
func (e *Escrow) Cancel() error {
	if e.Status.terminal() {
		return fmt.Errorf("%w: escrow %s is already %s", ErrEscrowStateViolation, e.InternalID, e.Status)
	}
	e.Status = EscrowStatusCancelled
	return nil
}

// TransactionResult is returned by every chain-submitting escrow operation.
type TransactionResult struct {
	Hash        string
	Status      string
	RawResponse map[string]any
}

// UnsignedTransaction is the chain-specific create object PrepareCreateEscrow
// hands back for flows where the signer is external (a non-custodial
// wallet): the adapter builds it but never sees a private key, and the
// caller returns a signed payload through SubmitSignedTransaction.
type UnsignedTransaction struct {
	InternalID       string
	Amount           int64
	ExpiresAtUTC     time.Time
	RecipientAddress string
	Purpose          EscrowPurpose
	VerificationKey  string
}

// TransactionType is the tagged variant a ledger entry's parameter class is
// decoded into at the boundary, replacing class-name-based dispatch.
type TransactionType string

const (
	TxSend          TransactionType = "send"
	TxReceive       TransactionType = "receive"
	TxEscrowCreate  TransactionType = "escrow_create"
	TxEscrowFulfill TransactionType = "escrow_fulfill"
	TxEscrowRelease TransactionType = "escrow_release"
	TxFaucet        TransactionType = "faucet"
	TxUnknown       TransactionType = "unknown"
)

// ParsedTransaction is one user-facing transaction produced from a raw
// ledger entry by the transaction history parser.
type ParsedTransaction struct {
	ID       string
	Type     TransactionType
	Amount   string // decimal string
	From     string
	To       string
	DateISO  string
	Hash     string
	Nonce    int64
	ClassName string
	EscrowID string
}
