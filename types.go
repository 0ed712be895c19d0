// Package rfq defines the core types of the RFQ settlement authorization
// protocol: offers posted by sellers, signed bids produced off-chain by bidders
// or their delegates, and the violation codes returned by bid validation.
package rfq

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Offer is a standing sell order. It is created once and never mutated or
// deleted; lookup by id is the only access path.
type Offer struct {
	// ID is the sequential offer identifier, starting at 1.
	ID uint64 `json:"id"`

	// Seller is the identity that created the offer and the only caller
	// allowed to settle against it.
	Seller common.Address `json:"seller"`

	// OfferToken is the token the seller is selling.
	OfferToken common.Address `json:"offerToken"`

	// BidToken is the token the seller accepts as payment.
	BidToken common.Address `json:"bidToken"`

	// MinPrice is the price of one whole OfferToken unit denominated in
	// BidToken atomic units. Must be > 0.
	MinPrice *big.Int `json:"minPrice"`

	// MinBidSize is the smallest acceptable bid amount in OfferToken atomic
	// units. Must be > 0.
	MinBidSize *big.Int `json:"minBidSize"`

	// TotalSize is the total amount of OfferToken offered. It is never
	// decremented as bids settle; the seller is trusted to stop settling.
	TotalSize *big.Int `json:"totalSize"`

	// OfferTokenDecimals is the offer token's decimals, snapshotted at
	// creation and used in the price check.
	OfferTokenDecimals uint8 `json:"offerTokenDecimals"`
}

// Bid is a signed authorization to fill part of an offer. Bids are ephemeral:
// they exist only for the duration of a validation or settlement call and are
// never stored.
type Bid struct {
	// OfferID references the offer this bid fills.
	OfferID uint64 `json:"offerId"`

	// BidID is a caller-supplied correlation id. It is covered by the
	// signature but not validated for uniqueness.
	BidID uint64 `json:"bidId"`

	// SignerAddress is the claimed signer of the bid.
	SignerAddress common.Address `json:"signerAddress"`

	// BidderAddress is the bidder the bid settles for. It equals
	// SignerAddress unless the bidder delegated signing.
	BidderAddress common.Address `json:"bidderAddress"`

	// BidToken is the payment token, echoed for consistency checking.
	BidToken common.Address `json:"bidToken"`

	// OfferToken is the sold token, echoed for consistency checking.
	OfferToken common.Address `json:"offerToken"`

	// BidAmount is the amount of OfferToken the bidder wants, in atomic units.
	BidAmount *big.Int `json:"bidAmount"`

	// SellAmount is the amount of BidToken the bidder pays, in atomic units.
	SellAmount *big.Int `json:"sellAmount"`

	// Signature is the 65-byte r||s||v signature over the bid digest, with
	// Ethereum-style v in {27,28}.
	Signature []byte `json:"signature"`
}

// ViolationCode names one reason a candidate bid fails validation.
type ViolationCode string

// Violation codes in check execution order. The order is part of the
// interface: CheckBid appends them exactly in this sequence.
const (
	SignatureMismatched    ViolationCode = "SIGNATURE_MISMATCHED"
	InvalidSignerForBidder ViolationCode = "INVALID_SIGNER_FOR_BIDDER"
	BidTooSmall            ViolationCode = "BID_TOO_SMALL"
	BidExceedTotalSize     ViolationCode = "BID_EXCEED_TOTAL_SIZE"
	PriceTooLow            ViolationCode = "PRICE_TOO_LOW"
	BidderAllowanceLow     ViolationCode = "BIDDER_ALLOWANCE_LOW"
	SellerAllowanceLow     ViolationCode = "SELLER_ALLOWANCE_LOW"
)

// MaxBidViolations is the capacity of the violation list returned by CheckBid.
// Seven checks are defined, so the cap is never reached by the current check
// set; exceeding it indicates a programming error when checks are extended.
const MaxBidViolations = 7
