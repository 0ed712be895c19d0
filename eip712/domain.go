// Package eip712 builds the structured-data digests that bind bid signatures
// to a specific protocol deployment, and recovers signer identities from
// those signatures. The typehash strings and field order are the
// interoperability contract: they must match byte-for-byte across every
// signer and verifier implementation.
package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// domainTypeHash is the keccak256 hash of the EIP712Domain type definition.
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

	// bidTypeHash is the keccak256 hash of the Bid type definition.
	bidTypeHash = crypto.Keccak256Hash([]byte("Bid(uint256 offerId,uint256 bidId,address signerAddress,address bidderAddress,address bidToken,address offerToken,uint256 bidAmount,uint256 sellAmount,uint256 nonce)"))
)

// Domain holds the fixed domain-separation parameters of one protocol
// deployment. The separator is computed once at construction and never
// changes.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address

	separator common.Hash
}

// NewDomain derives the domain separator for the given deployment parameters.
func NewDomain(name, version string, chainID *big.Int, verifyingContract common.Address) *Domain {
	d := &Domain{
		Name:              name,
		Version:           version,
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
	d.separator = crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(name)),
		crypto.Keccak256([]byte(version)),
		common.LeftPadBytes(chainID.Bytes(), 32),
		common.LeftPadBytes(verifyingContract.Bytes(), 32),
	)
	return d
}

// Separator returns the precomputed domain separator.
func (d *Domain) Separator() common.Hash {
	return d.separator
}
