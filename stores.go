package rfq

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OfferStore persists immutable offer records keyed by sequential id.
type OfferStore interface {
	// Create assigns the next sequential id (starting at 1), stores the
	// record, and returns the assigned id. The offer's ID field is ignored
	// on input.
	Create(ctx context.Context, offer *Offer) (uint64, error)

	// Get returns the offer with the given id, or ErrOfferNotFound.
	Get(ctx context.Context, id uint64) (*Offer, error)
}

// NonceLedger tracks one monotonically increasing counter per signer,
// starting at zero.
type NonceLedger interface {
	// Current returns the stored counter without side effects.
	Current(ctx context.Context, signer common.Address) (uint64, error)

	// Consume returns the current value and increments the counter by one.
	// Two concurrent consumers of the same signer must never observe the
	// same value.
	Consume(ctx context.Context, signer common.Address) (uint64, error)
}

// DelegationRegistry maps a bidder to at most one delegate signer. Repeated
// delegations overwrite; absence means only the bidder itself may sign.
type DelegationRegistry interface {
	// Delegate records newSigner as the bidder's delegate, replacing any
	// prior delegate.
	Delegate(ctx context.Context, bidder, newSigner common.Address) error

	// Delegated returns the bidder's registered delegate, or the zero
	// address if none.
	Delegated(ctx context.Context, bidder common.Address) (common.Address, error)
}

// Transfer describes one settlement leg: amount of token moving from owner
// to recipient on the engine's authority.
type Transfer struct {
	Token     common.Address
	Owner     common.Address
	Recipient common.Address
	Amount    *big.Int
}

// TokenBackend is the external value-transfer collaborator. The spender in
// Allowance is the settlement authority owners approve, fixed at backend
// construction. Atomicity across the two settlement legs is the backend's
// transaction boundary.
type TokenBackend interface {
	// Allowance returns how much of token the owner has approved the
	// settlement authority to spend.
	Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error)

	// Exchange executes both settlement legs. Either both transfers apply or
	// neither does; a failed exchange leaves no partial state.
	Exchange(ctx context.Context, offerLeg, bidLeg Transfer) error
}
