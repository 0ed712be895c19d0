// Command rfqd serves the RFQ settlement authorization engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	rfq "github.com/rfqlabs/rfq-go"
	"github.com/rfqlabs/rfq-go/api"
	"github.com/rfqlabs/rfq-go/config"
	"github.com/rfqlabs/rfq-go/eip712"
	"github.com/rfqlabs/rfq-go/engine"
	"github.com/rfqlabs/rfq-go/erc20"
	"github.com/rfqlabs/rfq-go/gormstore"
	"github.com/rfqlabs/rfq-go/logger"
	"github.com/rfqlabs/rfq-go/memstore"
	"github.com/rfqlabs/rfq-go/memtoken"
)

var cfgFlag = flag.String("config", "config.toml", "Configuration file (toml format)")

func main() {
	flag.Parse()

	cfg, err := config.BuildConfig(*cfgFlag)
	if err != nil {
		logger.Fatal("Config error: %s", err)
	}
	logger.Init(cfg.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	domain := eip712.NewDomain(
		cfg.Domain.Name,
		cfg.Domain.Version,
		new(big.Int).SetUint64(cfg.Domain.ChainID),
		common.HexToAddress(cfg.Domain.VerifyingContract),
	)
	logger.Info("Domain separator %s for %s v%s on chain %d", domain.Separator(), cfg.Domain.Name, cfg.Domain.Version, cfg.Domain.ChainID)

	offers, nonces, delegations, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatal("Store error: %s", err)
	}

	tokens, err := buildTokenBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("Token backend error: %s", err)
	}

	eng := engine.New(domain, offers, nonces, delegations, tokens)

	srv := &http.Server{
		Addr:    cfg.API.Address,
		Handler: api.New(eng),
	}

	go func() {
		logger.Info("Listening on %s", cfg.API.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error: %s", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %s", err)
	}
	logger.SyncFileLogger()
}

func buildStores(ctx context.Context, cfg *config.Config) (rfq.OfferStore, rfq.NonceLedger, rfq.DelegationRegistry, error) {
	switch cfg.Store.Backend {
	case "mysql":
		store, err := gormstore.ConnectAndInitialize(ctx, &cfg.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, store, nil
	default:
		return memstore.NewOfferStore(), memstore.NewNonceLedger(), memstore.NewDelegationRegistry(), nil
	}
}

func buildTokenBackend(ctx context.Context, cfg *config.Config) (rfq.TokenBackend, error) {
	switch cfg.Tokens.Backend {
	case "erc20":
		// The verifying contract doubles as the settlement contract owners
		// approve.
		return erc20.Dial(ctx, cfg.Tokens.NodeURL, cfg.Tokens.AuthorityKey,
			common.HexToAddress(cfg.Domain.VerifyingContract), new(big.Int).SetUint64(cfg.Domain.ChainID))
	default:
		// In-memory backend: the allowance spender is the verifying
		// authority itself.
		if cfg.Tokens.AuthorityKey != "" {
			key, err := crypto.HexToECDSA(cfg.Tokens.AuthorityKey)
			if err != nil {
				return nil, rfq.ErrInvalidKey
			}
			return memtoken.New(crypto.PubkeyToAddress(key.PublicKey)), nil
		}
		return memtoken.New(common.HexToAddress(cfg.Domain.VerifyingContract)), nil
	}
}
