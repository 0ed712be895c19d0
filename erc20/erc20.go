// Package erc20 implements the rfq.TokenBackend collaborator against a
// deployed settlement contract over an RPC node. Allowance is a read call on
// the token contract; Exchange submits a single settle transaction that
// performs both transferFrom legs on-chain, so either both apply or the
// transaction reverts with no partial state.
package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	rfq "github.com/rfqlabs/rfq-go"
)

const erc20ABI = `[
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const settlementABI = `[
	{"type":"function","name":"settle","stateMutability":"nonpayable","inputs":[{"name":"offerToken","type":"address"},{"name":"bidToken","type":"address"},{"name":"seller","type":"address"},{"name":"bidder","type":"address"},{"name":"bidAmount","type":"uint256"},{"name":"sellAmount","type":"uint256"}],"outputs":[]}
]`

// Backend talks to the settlement contract on behalf of one authority key.
// The contract is the allowance spender sellers and bidders must approve.
type Backend struct {
	client    *ethclient.Client
	tokenABI  abi.ABI
	settleABI abi.ABI
	opts      *bind.TransactOpts
	contract  common.Address
}

// Dial connects to the RPC node and prepares a transactor from the authority
// key, bound to the settlement contract at the given address.
func Dial(ctx context.Context, nodeURL, authorityKeyHex string, contract common.Address, chainID *big.Int) (*Backend, error) {
	client, err := ethclient.DialContext(ctx, nodeURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", nodeURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(authorityKeyHex, "0x"))
	if err != nil {
		return nil, rfq.ErrInvalidKey
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}

	parsedToken, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	parsedSettle, err := abi.JSON(strings.NewReader(settlementABI))
	if err != nil {
		return nil, fmt.Errorf("parse settlement abi: %w", err)
	}

	return &Backend{
		client:    client,
		tokenABI:  parsedToken,
		settleABI: parsedSettle,
		opts:      opts,
		contract:  contract,
	}, nil
}

// Spender returns the settlement contract address owners must approve.
func (b *Backend) Spender() common.Address {
	return b.contract
}

// Allowance implements rfq.TokenBackend.
func (b *Backend) Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	bound := bind.NewBoundContract(token, b.tokenABI, b.client, b.client, b.client)

	var out []interface{}
	err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, b.contract)
	if err != nil {
		return nil, fmt.Errorf("allowance call on %s: %w", token, err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Exchange implements rfq.TokenBackend. Both legs execute inside one settle
// transaction; a revert means neither transfer happened.
func (b *Backend) Exchange(ctx context.Context, offerLeg, bidLeg rfq.Transfer) error {
	bound := bind.NewBoundContract(b.contract, b.settleABI, b.client, b.client, b.client)

	opts := *b.opts
	opts.Context = ctx
	tx, err := bound.Transact(&opts, "settle",
		offerLeg.Token, bidLeg.Token,
		offerLeg.Owner, bidLeg.Owner,
		offerLeg.Amount, bidLeg.Amount,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", rfq.ErrTransferFailed, err)
	}

	receipt, err := bind.WaitMined(ctx, b.client, tx)
	if err != nil {
		return fmt.Errorf("%w: waiting for %s: %v", rfq.ErrTransferFailed, tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s reverted", rfq.ErrTransferFailed, tx.Hash())
	}
	return nil
}
