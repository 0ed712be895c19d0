// Package bidsigner produces the off-chain bid signatures the settlement
// engine verifies. It is the counterpart half of the interoperability
// contract: a bid signed here recovers to the signer's address under the same
// domain and nonce.
package bidsigner

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	rfq "github.com/rfqlabs/rfq-go"
	"github.com/rfqlabs/rfq-go/eip712"
)

// Signer signs bids with a single ECDSA key.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	domain     *eip712.Domain
}

// Option configures a Signer.
type Option func(*Signer) error

// New creates a signer with the given options. A private key and a domain are
// required.
func New(opts ...Option) (*Signer, error) {
	s := &Signer{}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.privateKey == nil {
		return nil, rfq.ErrInvalidKey
	}
	if s.domain == nil {
		return nil, fmt.Errorf("%w: signing domain not set", rfq.ErrInvalidParameter)
	}

	s.address = crypto.PubkeyToAddress(s.privateKey.PublicKey)
	return s, nil
}

// WithPrivateKey sets the private key from a hex string.
func WithPrivateKey(hexKey string) Option {
	return func(s *Signer) error {
		hexKey = strings.TrimPrefix(hexKey, "0x")

		privateKey, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return rfq.ErrInvalidKey
		}

		s.privateKey = privateKey
		return nil
	}
}

// WithDomain binds the signer to a protocol deployment.
func WithDomain(domain *eip712.Domain) Option {
	return func(s *Signer) error {
		s.domain = domain
		return nil
	}
}

// Address returns the signer's address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignBid signs the bid digest for the given nonce and returns the 65-byte
// r||s||v signature with v in {27,28}. The caller supplies the nonce: the
// signer has no view of the engine's ledger, so the bidder must query
// Nonces() before signing.
func (s *Signer) SignBid(bid *rfq.Bid, nonce uint64) ([]byte, error) {
	digest := eip712.BidDigest(s.domain, bid, nonce)

	signature, err := crypto.Sign(digest.Bytes(), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rfq.ErrInvalidSignature, err)
	}

	// Adjust v value for Ethereum (27 or 28)
	signature[64] += 27

	return signature, nil
}

// SignedBid fills in the signer address, signs the bid in place and returns
// it.
func (s *Signer) SignedBid(bid *rfq.Bid, nonce uint64) (*rfq.Bid, error) {
	signed := *bid
	signed.SignerAddress = s.address
	if signed.BidderAddress == (common.Address{}) {
		signed.BidderAddress = s.address
	}

	sig, err := s.SignBid(&signed, nonce)
	if err != nil {
		return nil, err
	}
	signed.Signature = sig
	return &signed, nil
}
