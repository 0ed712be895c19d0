package encoding

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	rfq "github.com/rfqlabs/rfq-go"
)

func TestEncodeDecodeBid(t *testing.T) {
	bid := &rfq.Bid{
		OfferID:       1,
		BidID:         7,
		SignerAddress: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		BidderAddress: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		BidToken:      common.HexToAddress("0x3333333333333333333333333333333333333333"),
		OfferToken:    common.HexToAddress("0x4444444444444444444444444444444444444444"),
		BidAmount:     big.NewInt(1000000),
		SellAmount:    big.NewInt(2000000),
		Signature:     []byte{0x01, 0x02, 0x03},
	}

	encoded, err := EncodeBid(bid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := DecodeBid(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decoded.OfferID != bid.OfferID || decoded.BidID != bid.BidID {
		t.Errorf("ids did not survive the round trip: %+v", decoded)
	}
	if decoded.SignerAddress != bid.SignerAddress || decoded.BidderAddress != bid.BidderAddress {
		t.Errorf("addresses did not survive the round trip: %+v", decoded)
	}
	if decoded.BidAmount.Cmp(bid.BidAmount) != 0 || decoded.SellAmount.Cmp(bid.SellAmount) != 0 {
		t.Errorf("amounts did not survive the round trip: %+v", decoded)
	}
	if string(decoded.Signature) != string(bid.Signature) {
		t.Errorf("signature did not survive the round trip: %x", decoded.Signature)
	}
}

func TestDecodeBidInvalidBase64(t *testing.T) {
	if _, err := DecodeBid("not-base64!!!"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDecodeBidInvalidJSON(t *testing.T) {
	// "bm90LWpzb24=" is base64 for "not-json"
	if _, err := DecodeBid("bm90LWpzb24="); err == nil {
		t.Fatal("expected an error")
	}
}
