package eip712

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	rfq "github.com/rfqlabs/rfq-go"
)

// SignatureLength is the expected r||s||v signature size in bytes.
const SignatureLength = 65

// BidDigest computes the signing digest for a bid under the given domain,
// with the nonce passed explicitly. Both the read-only check path (current
// nonce) and the settlement path (consumed nonce) call this one function, so
// the same bid yields the same digest on either path as long as no other
// settlement advanced the nonce in between.
func BidDigest(domain *Domain, bid *rfq.Bid, nonce uint64) common.Hash {
	structHash := crypto.Keccak256(
		bidTypeHash.Bytes(),
		uint256Word(new(big.Int).SetUint64(bid.OfferID)),
		uint256Word(new(big.Int).SetUint64(bid.BidID)),
		addressWord(bid.SignerAddress),
		addressWord(bid.BidderAddress),
		addressWord(bid.BidToken),
		addressWord(bid.OfferToken),
		uint256Word(bid.BidAmount),
		uint256Word(bid.SellAmount),
		uint256Word(new(big.Int).SetUint64(nonce)),
	)

	// keccak256("\x19\x01" || domainSeparator || structHash)
	sep := domain.Separator()
	raw := make([]byte, 0, 2+32+32)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, sep.Bytes()...)
	raw = append(raw, structHash...)
	return crypto.Keccak256Hash(raw)
}

// RecoverSigner recovers the signing address from a digest and a 65-byte
// r||s||v signature with v in {27,28}. The returned address may differ from
// the claimed signer; callers must compare.
func RecoverSigner(digest common.Hash, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: signature length %d", rfq.ErrInvalidSignature, len(signature))
	}
	v := signature[SignatureLength-1]
	if v != 27 && v != 28 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", rfq.ErrInvalidSignature, v)
	}

	// go-ethereum expects the recovery id in the 0/1 range
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	sig[SignatureLength-1] = v - 27

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", rfq.ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func uint256Word(v *big.Int) []byte {
	if v == nil {
		v = new(big.Int)
	}
	return common.LeftPadBytes(v.Bytes(), 32)
}

func addressWord(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}
