// Package gormstore persists offers, nonces and delegations in MySQL. Nonce
// consumption runs inside a transaction with a row lock, so concurrent
// settlements for one signer serialize at the database.
package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	rfq "github.com/rfqlabs/rfq-go"
	"github.com/rfqlabs/rfq-go/config"
	"github.com/rfqlabs/rfq-go/logger"
)

const tcp = "tcp"

// Store implements rfq.OfferStore, rfq.NonceLedger and rfq.DelegationRegistry
// over one gorm connection.
type Store struct {
	db *gorm.DB
}

// ConnectAndInitialize connects with exponential backoff and auto-migrates
// the schema.
func ConnectAndInitialize(ctx context.Context, cfg *config.DBConfig) (*Store, error) {
	db, err := backoff.Retry(
		ctx,
		func() (*gorm.DB, error) { return Connect(cfg) },
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(time.Minute),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Debug("database connect error: %s - retrying after %v", err, d)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "ConnectAndInitialize: Connect")
	}

	if err := db.AutoMigrate(entities...); err != nil {
		return nil, errors.Wrap(err, "ConnectAndInitialize: AutoMigrate")
	}

	return &Store{db: db}, nil
}

func Connect(cfg *config.DBConfig) (*gorm.DB, error) {
	dbConfig := mysql.Config{
		User:                 cfg.Username,
		Passwd:               cfg.Password,
		Net:                  tcp,
		Addr:                 fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DBName:               cfg.Database,
		AllowNativePasswords: true,
		ParseTime:            true,
	}

	gormConfig := gorm.Config{
		Logger: gormlogger.Default.LogMode(getGormLogLevel(cfg)),
	}
	return gorm.Open(gormMysql.Open(dbConfig.FormatDSN()), &gormConfig)
}

func getGormLogLevel(cfg *config.DBConfig) gormlogger.LogLevel {
	if cfg.LogQueries {
		return gormlogger.Info
	}

	return gormlogger.Silent
}

// Create implements rfq.OfferStore.
func (s *Store) Create(ctx context.Context, offer *rfq.Offer) (uint64, error) {
	entity := offerEntity(offer)
	if err := s.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return 0, errors.Wrap(err, "create offer")
	}
	return entity.ID, nil
}

// Get implements rfq.OfferStore.
func (s *Store) Get(ctx context.Context, id uint64) (*rfq.Offer, error) {
	var entity Offer
	err := s.db.WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", rfq.ErrOfferNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get offer")
	}
	return entity.toOffer()
}

// Current implements rfq.NonceLedger.
func (s *Store) Current(ctx context.Context, signer common.Address) (uint64, error) {
	var entity Nonce
	err := s.db.WithContext(ctx).Where("signer = ?", signer.Hex()).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "current nonce")
	}
	return entity.Value, nil
}

// Consume implements rfq.NonceLedger. The row is locked for the duration of
// the transaction, so two concurrent consumers never observe the same value.
func (s *Store) Consume(ctx context.Context, signer common.Address) (uint64, error) {
	var consumed uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity Nonce
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("signer = ?", signer.Hex()).
			First(&entity).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entity = Nonce{Signer: signer.Hex()}
		} else if err != nil {
			return err
		}

		consumed = entity.Value
		entity.Value++
		entity.Updated = time.Now()
		return tx.Save(&entity).Error
	})
	if err != nil {
		return 0, errors.Wrap(err, "consume nonce")
	}
	return consumed, nil
}

// Delegate implements rfq.DelegationRegistry.
func (s *Store) Delegate(ctx context.Context, bidder, newSigner common.Address) error {
	entity := Delegation{
		Bidder:  bidder.Hex(),
		Signer:  newSigner.Hex(),
		Updated: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entity).Error
	return errors.Wrap(err, "delegate")
}

// Delegated implements rfq.DelegationRegistry.
func (s *Store) Delegated(ctx context.Context, bidder common.Address) (common.Address, error) {
	var entity Delegation
	err := s.db.WithContext(ctx).Where("bidder = ?", bidder.Hex()).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.Address{}, nil
	}
	if err != nil {
		return common.Address{}, errors.Wrap(err, "delegated")
	}
	return common.HexToAddress(entity.Signer), nil
}
