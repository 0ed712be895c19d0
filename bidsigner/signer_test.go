package bidsigner

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	rfq "github.com/rfqlabs/rfq-go"
	"github.com/rfqlabs/rfq-go/eip712"
)

const testPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// Standard BIP-39 test mnemonic
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testDomain() *eip712.Domain {
	return eip712.NewDomain("RFQ Settlement", "1", big.NewInt(31337), common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
}

func TestNewRequiresKeyAndDomain(t *testing.T) {
	_, err := New(WithDomain(testDomain()))
	if !errors.Is(err, rfq.ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}

	_, err = New(WithPrivateKey(testPrivateKeyHex))
	if !errors.Is(err, rfq.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}

	_, err = New(WithPrivateKey("not-hex"), WithDomain(testDomain()))
	if !errors.Is(err, rfq.ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestAddressDerivation(t *testing.T) {
	s, err := New(WithPrivateKey("0x"+testPrivateKeyHex), WithDomain(testDomain()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key, err := crypto.HexToECDSA(testPrivateKeyHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := crypto.PubkeyToAddress(key.PublicKey); s.Address() != want {
		t.Errorf("expected address %s, got %s", want.Hex(), s.Address().Hex())
	}
}

func TestSignBidRecovers(t *testing.T) {
	domain := testDomain()
	s, err := New(WithPrivateKey(testPrivateKeyHex), WithDomain(domain))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bid := &rfq.Bid{
		OfferID:       1,
		BidID:         7,
		SignerAddress: s.Address(),
		BidderAddress: s.Address(),
		BidToken:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		OfferToken:    common.HexToAddress("0x3333333333333333333333333333333333333333"),
		BidAmount:     big.NewInt(1000),
		SellAmount:    big.NewInt(2000),
	}

	sig, err := s.SignBid(bid, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sig) != eip712.SignatureLength {
		t.Fatalf("expected %d byte signature, got %d", eip712.SignatureLength, len(sig))
	}
	if v := sig[64]; v != 27 && v != 28 {
		t.Errorf("expected v in {27,28}, got %d", v)
	}

	digest := eip712.BidDigest(domain, bid, 3)
	recovered, err := eip712.RecoverSigner(digest, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recovered != s.Address() {
		t.Errorf("expected recovered %s, got %s", s.Address().Hex(), recovered.Hex())
	}

	// The signature does not verify under another nonce
	otherDigest := eip712.BidDigest(domain, bid, 4)
	recovered, err = eip712.RecoverSigner(otherDigest, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recovered == s.Address() {
		t.Error("expected recovery to fail for a different nonce")
	}
}

func TestSignedBidFillsSigner(t *testing.T) {
	s, err := New(WithPrivateKey(testPrivateKeyHex), WithDomain(testDomain()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	signed, err := s.SignedBid(&rfq.Bid{
		OfferID:    1,
		BidID:      1,
		BidAmount:  big.NewInt(10),
		SellAmount: big.NewInt(20),
	}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if signed.SignerAddress != s.Address() {
		t.Errorf("expected signer %s, got %s", s.Address().Hex(), signed.SignerAddress.Hex())
	}
	if signed.BidderAddress != s.Address() {
		t.Errorf("expected bidder defaulted to %s, got %s", s.Address().Hex(), signed.BidderAddress.Hex())
	}
	if len(signed.Signature) != eip712.SignatureLength {
		t.Errorf("expected %d byte signature, got %d", eip712.SignatureLength, len(signed.Signature))
	}
}

func TestWithMnemonic(t *testing.T) {
	s1, err := New(WithMnemonic(testMnemonic, 0), WithDomain(testDomain()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Derivation is deterministic
	s2, err := New(WithMnemonic(testMnemonic, 0), WithDomain(testDomain()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s1.Address() != s2.Address() {
		t.Error("expected deterministic derivation")
	}

	// A different account index yields a different key
	s3, err := New(WithMnemonic(testMnemonic, 1), WithDomain(testDomain()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s1.Address() == s3.Address() {
		t.Error("expected different addresses for different account indexes")
	}
}

func TestWithMnemonicInvalid(t *testing.T) {
	_, err := New(WithMnemonic("not a valid mnemonic", 0), WithDomain(testDomain()))
	if !errors.Is(err, rfq.ErrInvalidMnemonic) {
		t.Errorf("expected ErrInvalidMnemonic, got %v", err)
	}
}
