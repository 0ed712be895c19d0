package engine

import (
	"context"
	"fmt"
	"math/big"

	rfq "github.com/rfqlabs/rfq-go"
	"github.com/rfqlabs/rfq-go/eip712"
)

var ten = big.NewInt(10)

// CheckBid runs the full validation battery against a candidate bid without
// mutating any state, and returns every violated rule in check execution
// order. An empty result means the bid passes all checks known to this
// validator, not that settlement is guaranteed to succeed.
//
// The digest is built with the signer's current nonce, so the result matches
// what SettleOffer would verify as long as no other settlement consumed the
// nonce in between. CheckBid fails hard only if the referenced offer does not
// exist or a backend read fails.
func (e *Engine) CheckBid(ctx context.Context, bid *rfq.Bid) ([]rfq.ViolationCode, error) {
	offer, err := e.offers.Get(ctx, bid.OfferID)
	if err != nil {
		return nil, err
	}

	violations := make([]rfq.ViolationCode, 0, rfq.MaxBidViolations)

	// 1. Signature covers the current nonce and must recover to the claimed
	// signer. A malformed signature counts as a mismatch here, not a hard
	// failure.
	nonce, err := e.nonces.Current(ctx, bid.SignerAddress)
	if err != nil {
		return nil, err
	}
	digest := eip712.BidDigest(e.domain, bid, nonce)
	recovered, err := eip712.RecoverSigner(digest, bid.Signature)
	if err != nil || recovered != bid.SignerAddress {
		violations = appendViolation(violations, rfq.SignatureMismatched)
	}

	// 2. Signer must be the bidder or its registered delegate.
	authorized, err := e.isAuthorizedSigner(ctx, bid.BidderAddress, bid.SignerAddress)
	if err != nil {
		return nil, err
	}
	if !authorized {
		violations = appendViolation(violations, rfq.InvalidSignerForBidder)
	}

	bidAmount := bigOrZero(bid.BidAmount)
	sellAmount := bigOrZero(bid.SellAmount)

	// 3. Bid must meet the offer's minimum size.
	if bidAmount.Cmp(offer.MinBidSize) < 0 {
		violations = appendViolation(violations, rfq.BidTooSmall)
	}

	// 4. Bid must not exceed the offer's total size. The total is never
	// decremented by settlements, so this bounds a single bid only.
	if bidAmount.Cmp(offer.TotalSize) > 0 {
		violations = appendViolation(violations, rfq.BidExceedTotalSize)
	}

	// 5. Price check: sellAmount * 10^offerTokenDecimals / bidAmount must
	// reach minPrice. Integer division truncating toward zero is the exact
	// semantics, not an approximation. A zero bid amount cannot meet a
	// positive minimum price.
	if bidAmount.Sign() == 0 {
		violations = appendViolation(violations, rfq.PriceTooLow)
	} else {
		scale := new(big.Int).Exp(ten, big.NewInt(int64(offer.OfferTokenDecimals)), nil)
		price := new(big.Int).Mul(sellAmount, scale)
		price.Div(price, bidAmount)
		if price.Cmp(offer.MinPrice) < 0 {
			violations = appendViolation(violations, rfq.PriceTooLow)
		}
	}

	// 6. Bidder must have approved enough of the bid token.
	bidderAllowance, err := e.tokens.Allowance(ctx, bid.BidToken, bid.BidderAddress)
	if err != nil {
		return nil, err
	}
	if bidderAllowance.Cmp(sellAmount) < 0 {
		violations = appendViolation(violations, rfq.BidderAllowanceLow)
	}

	// 7. Seller must have approved enough of the offer token.
	sellerAllowance, err := e.tokens.Allowance(ctx, bid.OfferToken, offer.Seller)
	if err != nil {
		return nil, err
	}
	if sellerAllowance.Cmp(bidAmount) < 0 {
		violations = appendViolation(violations, rfq.SellerAllowanceLow)
	}

	return violations, nil
}

// appendViolation enforces the list capacity. The current check set can never
// exceed it; hitting the cap means a check was added without raising
// rfq.MaxBidViolations.
func appendViolation(violations []rfq.ViolationCode, code rfq.ViolationCode) []rfq.ViolationCode {
	if len(violations) >= rfq.MaxBidViolations {
		panic(fmt.Sprintf("violation list capacity %d exceeded appending %s", rfq.MaxBidViolations, code))
	}
	return append(violations, code)
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
