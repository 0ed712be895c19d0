package gormstore

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	rfq "github.com/rfqlabs/rfq-go"
)

// List entities to auto-migrate
var entities = []interface{}{
	Offer{},
	Nonce{},
	Delegation{},
}

// Offer is the persisted offer record. Amounts are stored as decimal strings
// sized for uint256 values. The auto-increment primary key provides the dense
// sequential offer ids starting at 1.
type Offer struct {
	ID                 uint64 `gorm:"primaryKey;autoIncrement"`
	Seller             string `gorm:"type:varchar(42);index"`
	OfferToken         string `gorm:"type:varchar(42)"`
	BidToken           string `gorm:"type:varchar(42)"`
	MinPrice           string `gorm:"type:varchar(78)"`
	MinBidSize         string `gorm:"type:varchar(78)"`
	TotalSize          string `gorm:"type:varchar(78)"`
	OfferTokenDecimals uint8
	CreatedAt          time.Time
}

// Nonce is one per-signer replay-protection counter.
type Nonce struct {
	Signer  string `gorm:"primaryKey;type:varchar(42)"`
	Value   uint64
	Updated time.Time
}

// Delegation maps a bidder to its single active delegate signer.
type Delegation struct {
	Bidder  string `gorm:"primaryKey;type:varchar(42)"`
	Signer  string `gorm:"type:varchar(42)"`
	Updated time.Time
}

func offerEntity(offer *rfq.Offer) Offer {
	return Offer{
		Seller:             offer.Seller.Hex(),
		OfferToken:         offer.OfferToken.Hex(),
		BidToken:           offer.BidToken.Hex(),
		MinPrice:           offer.MinPrice.String(),
		MinBidSize:         offer.MinBidSize.String(),
		TotalSize:          offer.TotalSize.String(),
		OfferTokenDecimals: offer.OfferTokenDecimals,
	}
}

func (o *Offer) toOffer() (*rfq.Offer, error) {
	minPrice, err := parseAmount(o.MinPrice)
	if err != nil {
		return nil, errors.Wrapf(err, "offer %d min price", o.ID)
	}
	minBidSize, err := parseAmount(o.MinBidSize)
	if err != nil {
		return nil, errors.Wrapf(err, "offer %d min bid size", o.ID)
	}
	totalSize, err := parseAmount(o.TotalSize)
	if err != nil {
		return nil, errors.Wrapf(err, "offer %d total size", o.ID)
	}

	return &rfq.Offer{
		ID:                 o.ID,
		Seller:             common.HexToAddress(o.Seller),
		OfferToken:         common.HexToAddress(o.OfferToken),
		BidToken:           common.HexToAddress(o.BidToken),
		MinPrice:           minPrice,
		MinBidSize:         minBidSize,
		TotalSize:          totalSize,
		OfferTokenDecimals: o.OfferTokenDecimals,
	}, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("malformed amount %q", s)
	}
	return v, nil
}
