package escrow

import (
	"sort"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// classToType maps a raw ledger entry's parameter class name to the
// tagged TransactionType vocabulary, replacing brittle class-name-based
// dispatch with an explicit lookup table.
var classToType = map[string]domain.TransactionType{
	"send":           domain.TxSend,
	"receive":        domain.TxReceive,
	"escrow_create":  domain.TxEscrowCreate,
	"escrow_fulfill": domain.TxEscrowFulfill,
	"escrow_release": domain.TxEscrowRelease,
	"faucet":         domain.TxFaucet,
}

// parseEntry tags one raw ledger entry and normalizes its sender/receiver,
// reversing faucet entries (the signer is the receiver, not the sender).
func parseEntry(entry RawLedgerEntry, queriedAddress string) domain.ParsedTransaction {
	txType, ok := classToType[entry.ClassName]
	if !ok {
		txType = domain.TxUnknown
	}

	from, to := entry.Sender, entry.Receiver
	if txType == domain.TxFaucet {
		from, to = entry.Receiver, entry.Signer
	}

	return domain.ParsedTransaction{
		ID:        entry.ID,
		Type:      txType,
		Amount:    entry.Amount,
		From:      from,
		To:        to,
		DateISO:   entry.TimestampISO,
		Hash:      synthesizeHash(entry.Signature, entry.Nonce, entry.TimestampUnix, entry.ID),
		Nonce:     entry.Nonce,
		ClassName: entry.ClassName,
		EscrowID:  entry.EscrowID,
	}
}

// paginate orders transactions newest-first and slices out page (1-based).
// An out-of-range page returns an empty slice rather than erroring.
func paginate(transactions []domain.ParsedTransaction, page, pageSize int) []domain.ParsedTransaction {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].DateISO > transactions[j].DateISO
	})

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = len(transactions)
	}

	start := (page - 1) * pageSize
	if start >= len(transactions) {
		return []domain.ParsedTransaction{}
	}
	end := start + pageSize
	if end > len(transactions) {
		end = len(transactions)
	}
	return transactions[start:end]
}
