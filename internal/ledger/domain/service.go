package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Propagator receives the distinct set of accounts a committed voucher
// touched. Posting never blocks on recomputation.
type Propagator interface {
	Enqueue(reason string, accountIDs ...snowflake.ID)
}

type Service interface {
	// Validate returns every violation in the voucher, or nil when postable.
	Validate(ctx context.Context, req PostVoucherRequest) ValidationErrors
	// Post validates, persists all lines atomically, and signals propagation.
	Post(ctx context.Context, req PostVoucherRequest) ([]GLEntry, error)
	// Cancel appends mirrored reversal lines and flags the originals.
	// A second cancel of the same voucher fails with ErrAlreadyCancelled.
	Cancel(ctx context.Context, voucherType, voucherNo, actor string) ([]GLEntry, error)
	GetVoucher(ctx context.Context, voucherType, voucherNo string) ([]GLEntry, error)
}
