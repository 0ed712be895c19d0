package memtoken

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	rfq "github.com/rfqlabs/rfq-go"
)

var (
	spender    = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	tokenA     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenB     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	alice      = common.HexToAddress("0xaaaaaAAAAAaaaaAAAaaAaaaaAAaAaaaAaAaAAAa1")
	bob        = common.HexToAddress("0xBbbBBBbbbBbbbBbBbbBbBbbbbbBbBbbbbBbBbbB2")
	oneHundred = big.NewInt(100)
)

func legs(amountA, amountB *big.Int) (rfq.Transfer, rfq.Transfer) {
	return rfq.Transfer{Token: tokenA, Owner: alice, Recipient: bob, Amount: amountA},
		rfq.Transfer{Token: tokenB, Owner: bob, Recipient: alice, Amount: amountB}
}

func TestExchange(t *testing.T) {
	ctx := context.Background()
	backend := New(spender)

	backend.Mint(tokenA, alice, oneHundred)
	backend.Approve(tokenA, alice, oneHundred)
	backend.Mint(tokenB, bob, oneHundred)
	backend.Approve(tokenB, bob, oneHundred)

	first, second := legs(big.NewInt(40), big.NewInt(25))
	if err := backend.Exchange(ctx, first, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := backend.BalanceOf(tokenA, alice); got.Cmp(big.NewInt(60)) != 0 {
		t.Errorf("expected alice tokenA balance 60, got %s", got)
	}
	if got := backend.BalanceOf(tokenA, bob); got.Cmp(big.NewInt(40)) != 0 {
		t.Errorf("expected bob tokenA balance 40, got %s", got)
	}
	if got := backend.BalanceOf(tokenB, alice); got.Cmp(big.NewInt(25)) != 0 {
		t.Errorf("expected alice tokenB balance 25, got %s", got)
	}

	// Allowances are spent by the exchange
	allowance, err := backend.Allowance(ctx, tokenA, alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowance.Cmp(big.NewInt(60)) != 0 {
		t.Errorf("expected remaining alice allowance 60, got %s", allowance)
	}
	allowance, err = backend.Allowance(ctx, tokenB, bob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowance.Cmp(big.NewInt(75)) != 0 {
		t.Errorf("expected remaining bob allowance 75, got %s", allowance)
	}
}

func TestExchangeFirstLegInsufficientAllowance(t *testing.T) {
	ctx := context.Background()
	backend := New(spender)

	backend.Mint(tokenA, alice, oneHundred)
	backend.Approve(tokenA, alice, big.NewInt(10))
	backend.Mint(tokenB, bob, oneHundred)
	backend.Approve(tokenB, bob, oneHundred)

	first, second := legs(big.NewInt(40), big.NewInt(25))
	err := backend.Exchange(ctx, first, second)
	if !errors.Is(err, rfq.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	// No partial effect
	if got := backend.BalanceOf(tokenA, alice); got.Cmp(oneHundred) != 0 {
		t.Errorf("expected alice tokenA balance unchanged, got %s", got)
	}
	if got := backend.BalanceOf(tokenB, bob); got.Cmp(oneHundred) != 0 {
		t.Errorf("expected bob tokenB balance unchanged, got %s", got)
	}
}

func TestExchangeSecondLegFailureRollsBackFirst(t *testing.T) {
	ctx := context.Background()
	backend := New(spender)

	backend.Mint(tokenA, alice, oneHundred)
	backend.Approve(tokenA, alice, oneHundred)
	// Bob is approved but has no tokenB balance
	backend.Approve(tokenB, bob, oneHundred)

	first, second := legs(big.NewInt(40), big.NewInt(25))
	err := backend.Exchange(ctx, first, second)
	if !errors.Is(err, rfq.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	// The applied first leg was rolled back
	if got := backend.BalanceOf(tokenA, alice); got.Cmp(oneHundred) != 0 {
		t.Errorf("expected alice tokenA balance restored, got %s", got)
	}
	if got := backend.BalanceOf(tokenA, bob); got.Sign() != 0 {
		t.Errorf("expected bob tokenA balance 0, got %s", got)
	}
	allowance, err := backend.Allowance(ctx, tokenA, alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowance.Cmp(oneHundred) != 0 {
		t.Errorf("expected alice allowance restored, got %s", allowance)
	}
}

func TestExchangeInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	backend := New(spender)

	backend.Mint(tokenA, alice, big.NewInt(10))
	backend.Approve(tokenA, alice, oneHundred)
	backend.Mint(tokenB, bob, oneHundred)
	backend.Approve(tokenB, bob, oneHundred)

	first, second := legs(big.NewInt(40), big.NewInt(25))
	err := backend.Exchange(ctx, first, second)
	if !errors.Is(err, rfq.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	allowance, err := backend.Allowance(ctx, tokenA, alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowance.Cmp(oneHundred) != 0 {
		t.Errorf("expected allowance unchanged, got %s", allowance)
	}
}

func TestAllowanceUnknownOwner(t *testing.T) {
	backend := New(spender)

	allowance, err := backend.Allowance(context.Background(), tokenA, alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowance.Sign() != 0 {
		t.Errorf("expected zero allowance, got %s", allowance)
	}
}
