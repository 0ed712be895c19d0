// Package memstore provides in-memory implementations of the rfq store
// interfaces. They are safe for concurrent use and suitable for tests and
// single-process deployments.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	rfq "github.com/rfqlabs/rfq-go"
)

// OfferStore is an in-memory rfq.OfferStore with dense sequential ids
// starting at 1.
type OfferStore struct {
	mu     sync.RWMutex
	offers map[uint64]rfq.Offer
	nextID uint64
}

// NewOfferStore returns an empty offer store.
func NewOfferStore() *OfferStore {
	return &OfferStore{
		offers: make(map[uint64]rfq.Offer),
		nextID: 1,
	}
}

// Create implements rfq.OfferStore.
func (s *OfferStore) Create(_ context.Context, offer *rfq.Offer) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	stored := *offer
	stored.ID = id
	s.offers[id] = stored
	return id, nil
}

// Get implements rfq.OfferStore.
func (s *OfferStore) Get(_ context.Context, id uint64) (*rfq.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offer, ok := s.offers[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", rfq.ErrOfferNotFound, id)
	}
	return &offer, nil
}

// NonceLedger is an in-memory rfq.NonceLedger. Consume is linearizable per
// signer: the ledger mutex serializes concurrent consumers.
type NonceLedger struct {
	mu     sync.Mutex
	nonces map[common.Address]uint64
}

// NewNonceLedger returns a ledger with all counters at zero.
func NewNonceLedger() *NonceLedger {
	return &NonceLedger{nonces: make(map[common.Address]uint64)}
}

// Current implements rfq.NonceLedger.
func (l *NonceLedger) Current(_ context.Context, signer common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nonces[signer], nil
}

// Consume implements rfq.NonceLedger.
func (l *NonceLedger) Consume(_ context.Context, signer common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.nonces[signer]
	l.nonces[signer] = n + 1
	return n, nil
}

// DelegationRegistry is an in-memory rfq.DelegationRegistry.
type DelegationRegistry struct {
	mu        sync.RWMutex
	delegates map[common.Address]common.Address
}

// NewDelegationRegistry returns an empty registry.
func NewDelegationRegistry() *DelegationRegistry {
	return &DelegationRegistry{delegates: make(map[common.Address]common.Address)}
}

// Delegate implements rfq.DelegationRegistry.
func (r *DelegationRegistry) Delegate(_ context.Context, bidder, newSigner common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delegates[bidder] = newSigner
	return nil
}

// Delegated implements rfq.DelegationRegistry.
func (r *DelegationRegistry) Delegated(_ context.Context, bidder common.Address) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delegates[bidder], nil
}
