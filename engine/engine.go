// Package engine implements the RFQ settlement authorization engine: offer
// creation, signer delegation, bid validation and authorized settlement
// against injected store and token backends.
package engine

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	rfq "github.com/rfqlabs/rfq-go"
	"github.com/rfqlabs/rfq-go/eip712"
	"github.com/rfqlabs/rfq-go/logger"
)

// Engine orchestrates authorization and settlement. All mutable state lives
// behind the injected store interfaces; the engine itself only holds the
// immutable domain and advisory per-offer locks.
type Engine struct {
	domain      *eip712.Domain
	offers      rfq.OfferStore
	nonces      rfq.NonceLedger
	delegations rfq.DelegationRegistry
	tokens      rfq.TokenBackend
	sink        rfq.Sink

	offerLocks [64]sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets the notification sink. Defaults to rfq.NopSink.
func WithSink(sink rfq.Sink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// New creates an engine over the given domain and backends.
func New(domain *eip712.Domain, offers rfq.OfferStore, nonces rfq.NonceLedger, delegations rfq.DelegationRegistry, tokens rfq.TokenBackend, opts ...Option) *Engine {
	e := &Engine{
		domain:      domain,
		offers:      offers,
		nonces:      nonces,
		delegations: delegations,
		tokens:      tokens,
		sink:        rfq.NopSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateOffer stores a new immutable offer owned by seller and returns its
// sequential id. MinPrice, MinBidSize and TotalSize must all be positive.
func (e *Engine) CreateOffer(ctx context.Context, seller common.Address, offer *rfq.Offer) (uint64, error) {
	if offer.MinPrice == nil || offer.MinPrice.Sign() <= 0 {
		return 0, fmt.Errorf("%w: min price must be positive", rfq.ErrInvalidParameter)
	}
	if offer.MinBidSize == nil || offer.MinBidSize.Sign() <= 0 {
		return 0, fmt.Errorf("%w: min bid size must be positive", rfq.ErrInvalidParameter)
	}
	if offer.TotalSize == nil || offer.TotalSize.Sign() <= 0 {
		return 0, fmt.Errorf("%w: total size must be positive", rfq.ErrInvalidParameter)
	}

	stored := *offer
	stored.Seller = seller
	id, err := e.offers.Create(ctx, &stored)
	if err != nil {
		return 0, err
	}
	stored.ID = id

	logger.Info("offer %d created by %s: %s %s for %s, min price %s", id, seller, stored.TotalSize, stored.OfferToken, stored.BidToken, stored.MinPrice)
	e.sink.OfferCreated(rfq.OfferCreatedEvent{Offer: stored})
	return id, nil
}

// DelegateToSigner registers newSigner as bidder's delegate, replacing any
// prior delegate. A bidder may delegate to itself or to an address already
// delegated by someone else.
func (e *Engine) DelegateToSigner(ctx context.Context, bidder, newSigner common.Address) error {
	if newSigner == (common.Address{}) {
		return fmt.Errorf("%w: delegate signer must not be zero", rfq.ErrInvalidParameter)
	}
	if err := e.delegations.Delegate(ctx, bidder, newSigner); err != nil {
		return err
	}

	logger.Info("bidder %s delegated signing to %s", bidder, newSigner)
	e.sink.DelegateChanged(rfq.DelegateChangedEvent{Bidder: bidder, NewSigner: newSigner})
	return nil
}

// SettleOffer settles a signed bid against an offer. Only the offer's seller
// may call it. The signer's nonce is consumed before the signature is
// verified, so a failed settlement still burns the nonce and permanently
// invalidates the signature that was built over it. External signers depend
// on this ordering; do not reorder.
func (e *Engine) SettleOffer(ctx context.Context, caller common.Address, offerID uint64, bid *rfq.Bid) error {
	unlock := e.lockOffer(offerID)
	defer unlock()

	offer, err := e.offers.Get(ctx, offerID)
	if err != nil {
		return err
	}

	if caller != offer.Seller {
		return fmt.Errorf("%w: caller %s, seller %s", rfq.ErrUnauthorized, caller, offer.Seller)
	}

	// A nil amount survives decoding when the field is absent from the wire
	// form; it must be rejected here, before any transfer.
	if offerID != bid.OfferID ||
		bid.BidToken != offer.BidToken ||
		bid.OfferToken != offer.OfferToken ||
		bid.SellAmount == nil ||
		bid.BidAmount == nil || bid.BidAmount.Cmp(offer.MinBidSize) < 0 {
		return fmt.Errorf("%w: offer %d", rfq.ErrInconsistentOffer, offerID)
	}

	if bid.BidderAddress != bid.SignerAddress {
		ok, err := e.isAuthorizedSigner(ctx, bid.BidderAddress, bid.SignerAddress)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s for bidder %s", rfq.ErrInvalidDelegate, bid.SignerAddress, bid.BidderAddress)
		}
	}

	nonce, err := e.nonces.Consume(ctx, bid.SignerAddress)
	if err != nil {
		return err
	}

	digest := eip712.BidDigest(e.domain, bid, nonce)
	recovered, err := eip712.RecoverSigner(digest, bid.Signature)
	if err != nil {
		return err
	}
	if recovered != bid.SignerAddress {
		return fmt.Errorf("%w: recovered %s, claimed %s", rfq.ErrInvalidSignature, recovered, bid.SignerAddress)
	}

	// Both legs, or neither: atomicity is the token backend's transaction
	// boundary.
	err = e.tokens.Exchange(ctx,
		rfq.Transfer{Token: offer.OfferToken, Owner: offer.Seller, Recipient: bid.BidderAddress, Amount: bid.BidAmount},
		rfq.Transfer{Token: offer.BidToken, Owner: bid.BidderAddress, Recipient: offer.Seller, Amount: bid.SellAmount},
	)
	if err != nil {
		return err
	}

	logger.Info("offer %d settled: bid %d, %s %s to %s, %s %s to %s", offerID, bid.BidID, bid.BidAmount, offer.OfferToken, bid.BidderAddress, bid.SellAmount, offer.BidToken, offer.Seller)
	e.sink.SettlementCompleted(rfq.SettlementEvent{
		OfferID:    offerID,
		BidID:      bid.BidID,
		OfferToken: offer.OfferToken,
		BidToken:   offer.BidToken,
		Seller:     offer.Seller,
		Bidder:     bid.BidderAddress,
		BidAmount:  new(big.Int).Set(bid.BidAmount),
		SellAmount: new(big.Int).Set(bid.SellAmount),
	})
	return nil
}

// GetBidSigner recovers the signing address of a bid using the signer's
// current (unconsumed) nonce. Read-only.
func (e *Engine) GetBidSigner(ctx context.Context, bid *rfq.Bid) (common.Address, error) {
	nonce, err := e.nonces.Current(ctx, bid.SignerAddress)
	if err != nil {
		return common.Address{}, err
	}
	digest := eip712.BidDigest(e.domain, bid, nonce)
	return eip712.RecoverSigner(digest, bid.Signature)
}

// Nonces returns the signer's current nonce.
func (e *Engine) Nonces(ctx context.Context, signer common.Address) (uint64, error) {
	return e.nonces.Current(ctx, signer)
}

// GetOfferDetails returns the stored offer record.
func (e *Engine) GetOfferDetails(ctx context.Context, offerID uint64) (*rfq.Offer, error) {
	return e.offers.Get(ctx, offerID)
}

func (e *Engine) isAuthorizedSigner(ctx context.Context, bidder, signer common.Address) (bool, error) {
	if signer == bidder {
		return true, nil
	}
	delegated, err := e.delegations.Delegated(ctx, bidder)
	if err != nil {
		return false, err
	}
	return delegated == signer, nil
}

// lockOffer serializes settlement per offer id over a fixed set of lock
// stripes, bounding lock state for long-lived processes. This is advisory
// isolation: settle re-validates everything itself, but serializing keeps
// checkBid observations consistent with an immediately following settle.
func (e *Engine) lockOffer(offerID uint64) func() {
	l := &e.offerLocks[offerID%uint64(len(e.offerLocks))]
	l.Lock()
	return l.Unlock
}
