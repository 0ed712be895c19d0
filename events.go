package rfq

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OfferCreatedEvent is emitted once per successful offer creation and carries
// every field of the stored record.
type OfferCreatedEvent struct {
	Offer Offer `json:"offer"`
}

// DelegateChangedEvent is emitted when a bidder registers or replaces a
// delegate signer.
type DelegateChangedEvent struct {
	Bidder    common.Address `json:"bidder"`
	NewSigner common.Address `json:"newSigner"`
}

// SettlementEvent is emitted exactly once per successful settlement.
type SettlementEvent struct {
	OfferID    uint64         `json:"offerId"`
	BidID      uint64         `json:"bidId"`
	OfferToken common.Address `json:"offerToken"`
	BidToken   common.Address `json:"bidToken"`
	Seller     common.Address `json:"seller"`
	Bidder     common.Address `json:"bidder"`
	BidAmount  *big.Int       `json:"bidAmount"`
	SellAmount *big.Int       `json:"sellAmount"`
}

// Sink receives engine notifications. Implementations must not block; the
// engine calls them synchronously inside mutating operations.
type Sink interface {
	OfferCreated(OfferCreatedEvent)
	DelegateChanged(DelegateChangedEvent)
	SettlementCompleted(SettlementEvent)
}

// NopSink discards all notifications.
type NopSink struct{}

func (NopSink) OfferCreated(OfferCreatedEvent)       {}
func (NopSink) DelegateChanged(DelegateChangedEvent) {}
func (NopSink) SettlementCompleted(SettlementEvent)  {}
