package eip712

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	rfq "github.com/rfqlabs/rfq-go"
)

const testPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testDomain() *Domain {
	return NewDomain("RFQ Settlement", "1", big.NewInt(31337), common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
}

func testBid() *rfq.Bid {
	return &rfq.Bid{
		OfferID:       1,
		BidID:         1,
		SignerAddress: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		BidderAddress: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		BidToken:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		OfferToken:    common.HexToAddress("0x3333333333333333333333333333333333333333"),
		BidAmount:     big.NewInt(1000000),
		SellAmount:    big.NewInt(2000000),
	}
}

func TestDomainSeparator(t *testing.T) {
	d := testDomain()

	if d.Separator() == (common.Hash{}) {
		t.Fatal("expected non-zero domain separator")
	}

	// Identical parameters produce the identical separator
	same := NewDomain("RFQ Settlement", "1", big.NewInt(31337), common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	if d.Separator() != same.Separator() {
		t.Error("expected equal separators for equal parameters")
	}

	// Any parameter change must change the separator
	variants := []*Domain{
		NewDomain("Other Protocol", "1", big.NewInt(31337), common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")),
		NewDomain("RFQ Settlement", "2", big.NewInt(31337), common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")),
		NewDomain("RFQ Settlement", "1", big.NewInt(1), common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")),
		NewDomain("RFQ Settlement", "1", big.NewInt(31337), common.HexToAddress("0x4444444444444444444444444444444444444444")),
	}
	for i, v := range variants {
		if v.Separator() == d.Separator() {
			t.Errorf("variant %d: expected a different separator", i)
		}
	}
}

func TestBidDigestDependsOnEveryField(t *testing.T) {
	domain := testDomain()
	base := BidDigest(domain, testBid(), 0)

	mutations := map[string]func(*rfq.Bid){
		"offerId":       func(b *rfq.Bid) { b.OfferID = 2 },
		"bidId":         func(b *rfq.Bid) { b.BidID = 10 },
		"signerAddress": func(b *rfq.Bid) { b.SignerAddress = common.HexToAddress("0x9999999999999999999999999999999999999999") },
		"bidderAddress": func(b *rfq.Bid) { b.BidderAddress = common.HexToAddress("0x9999999999999999999999999999999999999999") },
		"bidToken":      func(b *rfq.Bid) { b.BidToken = common.HexToAddress("0x9999999999999999999999999999999999999999") },
		"offerToken":    func(b *rfq.Bid) { b.OfferToken = common.HexToAddress("0x9999999999999999999999999999999999999999") },
		"bidAmount":     func(b *rfq.Bid) { b.BidAmount = big.NewInt(42) },
		"sellAmount":    func(b *rfq.Bid) { b.SellAmount = big.NewInt(42) },
	}

	for field, mutate := range mutations {
		bid := testBid()
		mutate(bid)
		if BidDigest(domain, bid, 0) == base {
			t.Errorf("digest unchanged after mutating %s", field)
		}
	}

	if BidDigest(domain, testBid(), 1) == base {
		t.Error("digest unchanged after changing nonce")
	}
}

func TestBidDigestDeterministic(t *testing.T) {
	domain := testDomain()

	a := BidDigest(domain, testBid(), 5)
	b := BidDigest(domain, testBid(), 5)
	if a != b {
		t.Error("expected identical digests for identical inputs")
	}
}

func TestRecoverSignerRoundTrip(t *testing.T) {
	privateKey, err := crypto.HexToECDSA(testPrivateKeyHex)
	if err != nil {
		t.Fatalf("failed to parse private key: %v", err)
	}
	want := crypto.PubkeyToAddress(privateKey.PublicKey)

	digest := BidDigest(testDomain(), testBid(), 0)
	sig, err := crypto.Sign(digest.Bytes(), privateKey)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	sig[64] += 27

	got, err := RecoverSigner(digest, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected signer %s, got %s", want.Hex(), got.Hex())
	}

	// A different digest recovers to a different address
	other := BidDigest(testDomain(), testBid(), 1)
	got, err = RecoverSigner(other, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == want {
		t.Error("expected a different recovered address for a different digest")
	}
}

func TestRecoverSignerMalformed(t *testing.T) {
	digest := BidDigest(testDomain(), testBid(), 0)

	tests := []struct {
		name string
		sig  []byte
	}{
		{"empty", nil},
		{"short", make([]byte, 64)},
		{"long", make([]byte, 66)},
		{"bad recovery id", append(bytes.Repeat([]byte{0x01}, 64), 29)},
		{"zero recovery id", append(bytes.Repeat([]byte{0x01}, 64), 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RecoverSigner(digest, tc.sig)
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
