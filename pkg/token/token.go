// Package token provides an in-memory fungible asset with standard
// transfer/allowance semantics. It backs the escrow engine's tests and
// tooling; real deployments substitute their own Token capability.
package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"zkbounty/pkg/escrow"
)

var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is a mutex-guarded balance/allowance ledger implementing
// escrow.Token. Value is conserved: every transfer debits exactly what it
// credits, and failed transfers move nothing.
type Token struct {
	mu        sync.Mutex
	addr      escrow.Address
	symbol    string
	balances  map[escrow.Address]*big.Int
	allowance map[escrow.Address]map[escrow.Address]*big.Int // owner -> operator -> amount
}

// New creates an empty token ledger. The asset address is derived from the
// symbol so fixtures stay deterministic.
func New(symbol string) *Token {
	return &Token{
		addr:      escrow.AddressFromSeed([]byte("token:" + symbol)),
		symbol:    symbol,
		balances:  make(map[escrow.Address]*big.Int),
		allowance: make(map[escrow.Address]map[escrow.Address]*big.Int),
	}
}

func (t *Token) Address() escrow.Address {
	return t.addr
}

func (t *Token) Symbol() string {
	return t.symbol
}

// Mint credits freshly issued units to who. Test and genesis use only.
func (t *Token) Mint(who escrow.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[who] = new(big.Int).Add(t.balanceLocked(who), amount)
}

// Approve lets operator spend up to amount of owner's funds via
// TransferFrom. Overwrites any prior approval.
func (t *Token) Approve(owner, operator escrow.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byOperator, ok := t.allowance[owner]
	if !ok {
		byOperator = make(map[escrow.Address]*big.Int)
		t.allowance[owner] = byOperator
	}
	byOperator[operator] = new(big.Int).Set(amount)
}

// Allowance reports what operator may still spend of owner's funds.
func (t *Token) Allowance(owner, operator escrow.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.allowanceLocked(owner, operator))
}

// TransferFrom moves amount from from to to, consuming operator's
// allowance. Fails atomically on insufficient allowance or balance.
func (t *Token) TransferFrom(operator, from, to escrow.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowanceLocked(from, operator)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allows %s to %s, need %s",
			ErrInsufficientAllowance, from, allowed, operator, amount)
	}
	if err := t.moveLocked(from, to, amount); err != nil {
		return err
	}
	t.allowance[from][operator] = new(big.Int).Sub(allowed, amount)
	return nil
}

// Transfer moves amount out of from's own holdings.
func (t *Token) Transfer(from, to escrow.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.moveLocked(from, to, amount)
}

// BalanceOf reports who's current holdings.
func (t *Token) BalanceOf(who escrow.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balanceLocked(who))
}

// TotalSupply sums all holdings; useful for conservation checks.
func (t *Token) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := new(big.Int)
	for _, b := range t.balances {
		total.Add(total, b)
	}
	return total
}

func (t *Token) balanceLocked(who escrow.Address) *big.Int {
	if b, ok := t.balances[who]; ok {
		return b
	}
	return new(big.Int)
}

func (t *Token) allowanceLocked(owner, operator escrow.Address) *big.Int {
	if byOperator, ok := t.allowance[owner]; ok {
		if a, ok := byOperator[operator]; ok {
			return a
		}
	}
	return new(big.Int)
}

func (t *Token) moveLocked(from, to escrow.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("transfer amount must be non-negative")
	}
	have := t.balanceLocked(from)
	if have.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientFunds, from, have, amount)
	}
	t.balances[from] = new(big.Int).Sub(have, amount)
	t.balances[to] = new(big.Int).Add(t.balanceLocked(to), amount)
	return nil
}

var _ escrow.Token = (*Token)(nil)
