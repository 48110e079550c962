package chain

import (
	"context"
	"fmt"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// Signer builds and "signs" a release payload for the mock chain. Real
// signing key material never enters this process; it packs the fields a
// signature would cover into a deterministic byte payload the mock chain
// accepts as-is.
type Signer struct{}

// NewSigner constructs a Signer.
func NewSigner() *Signer {
	return &Signer{}
}

// SignRelease implements monitor.TransactionSigner.
func (s *Signer) SignRelease(ctx context.Context, e *domain.Escrow, recipientAddr string) ([]byte, error) {
	if recipientAddr == "" {
		return nil, fmt.Errorf("sign release: recipient address is required")
	}
	payload := fmt.Sprintf("release:%s:%d:%s", e.InternalID, e.Amount, recipientAddr)
	return []byte(payload), nil
}
