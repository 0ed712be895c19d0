// Package memtoken provides an in-memory rfq.TokenBackend with ERC-20-like
// balance and allowance bookkeeping. It backs tests and local runs where no
// chain is available.
package memtoken

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	rfq "github.com/rfqlabs/rfq-go"
)

type account struct {
	token common.Address
	owner common.Address
}

// Backend tracks balances per (token, owner) and allowances granted to a
// single spender, the settlement authority it was constructed with.
type Backend struct {
	spender common.Address

	mu         sync.Mutex
	balances   map[account]*big.Int
	allowances map[account]*big.Int
}

// New returns an empty backend whose Allowance and Exchange act on behalf of
// the given spender.
func New(spender common.Address) *Backend {
	return &Backend{
		spender:    spender,
		balances:   make(map[account]*big.Int),
		allowances: make(map[account]*big.Int),
	}
}

// Mint credits amount of token to owner.
func (b *Backend) Mint(token, owner common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(b.balances, account{token, owner}, amount)
}

// Approve sets (not adds) the owner's allowance of token toward the spender.
func (b *Backend) Approve(token, owner common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowances[account{token, owner}] = new(big.Int).Set(amount)
}

// BalanceOf returns the owner's balance of token.
func (b *Backend) BalanceOf(token, owner common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.get(b.balances, account{token, owner}))
}

// Allowance implements rfq.TokenBackend.
func (b *Backend) Allowance(_ context.Context, token, owner common.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.get(b.allowances, account{token, owner})), nil
}

// Exchange implements rfq.TokenBackend. Both legs run under one lock; if the
// second leg fails, the first is rolled back before the lock is released, so
// a failed exchange leaves no partial state.
func (b *Backend) Exchange(_ context.Context, offerLeg, bidLeg rfq.Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.transfer(offerLeg); err != nil {
		return err
	}
	if err := b.transfer(bidLeg); err != nil {
		b.revert(offerLeg)
		return err
	}
	return nil
}

// transfer checks allowance and balance, then applies one leg.
func (b *Backend) transfer(leg rfq.Transfer) error {
	from := account{leg.Token, leg.Owner}
	allowance := b.get(b.allowances, from)
	if allowance.Cmp(leg.Amount) < 0 {
		return fmt.Errorf("%w: allowance %s < %s", rfq.ErrTransferFailed, allowance, leg.Amount)
	}
	balance := b.get(b.balances, from)
	if balance.Cmp(leg.Amount) < 0 {
		return fmt.Errorf("%w: balance %s < %s", rfq.ErrTransferFailed, balance, leg.Amount)
	}

	b.allowances[from] = new(big.Int).Sub(allowance, leg.Amount)
	b.balances[from] = new(big.Int).Sub(balance, leg.Amount)
	b.add(b.balances, account{leg.Token, leg.Recipient}, leg.Amount)
	return nil
}

// revert undoes a previously applied leg, restoring balances and allowance.
func (b *Backend) revert(leg rfq.Transfer) {
	from := account{leg.Token, leg.Owner}
	to := account{leg.Token, leg.Recipient}
	b.balances[to] = new(big.Int).Sub(b.get(b.balances, to), leg.Amount)
	b.add(b.balances, from, leg.Amount)
	b.add(b.allowances, from, leg.Amount)
}

func (b *Backend) get(m map[account]*big.Int, key account) *big.Int {
	if v, ok := m[key]; ok {
		return v
	}
	return new(big.Int)
}

func (b *Backend) add(m map[account]*big.Int, key account, amount *big.Int) {
	m[key] = new(big.Int).Add(b.get(m, key), amount)
}
