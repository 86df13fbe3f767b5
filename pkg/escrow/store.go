package escrow

import "math/big"

// Store is the explicit mutable state of the escrow game: the challenge
// registry plus the per-asset prize pools and per-participant withdrawable
// balances. It is owned by exactly one Engine and only mutated through the
// Engine's operations, which keeps replay deterministic and tests free of
// ambient state.
type Store struct {
	challenges map[string]*Challenge
	prizePool  map[Address]*big.Int
	balances   map[Address]map[Address]*big.Int // participant -> asset -> amount
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		challenges: make(map[string]*Challenge),
		prizePool:  make(map[Address]*big.Int),
		balances:   make(map[Address]map[Address]*big.Int),
	}
}

func (s *Store) challenge(n *big.Int) (*Challenge, bool) {
	c, ok := s.challenges[n.String()]
	return c, ok
}

func (s *Store) putChallenge(c *Challenge) {
	s.challenges[c.N.String()] = c
}

func (s *Store) deleteChallenge(n *big.Int) {
	delete(s.challenges, n.String())
}

// pool returns the current prize pool for asset, zero if untouched.
func (s *Store) pool(asset Address) *big.Int {
	if p, ok := s.prizePool[asset]; ok {
		return p
	}
	return new(big.Int)
}

func (s *Store) addToPool(asset Address, amount *big.Int) {
	s.prizePool[asset] = new(big.Int).Add(s.pool(asset), amount)
}

func (s *Store) subFromPool(asset Address, amount *big.Int) {
	s.prizePool[asset] = new(big.Int).Sub(s.pool(asset), amount)
}

// balance returns who's withdrawable balance in asset, zero if untouched.
func (s *Store) balance(who, asset Address) *big.Int {
	if byAsset, ok := s.balances[who]; ok {
		if b, ok := byAsset[asset]; ok {
			return b
		}
	}
	return new(big.Int)
}

func (s *Store) setBalance(who, asset Address, amount *big.Int) {
	byAsset, ok := s.balances[who]
	if !ok {
		byAsset = make(map[Address]*big.Int)
		s.balances[who] = byAsset
	}
	byAsset[asset] = amount
}

func (s *Store) credit(who, asset Address, amount *big.Int) {
	s.setBalance(who, asset, new(big.Int).Add(s.balance(who, asset), amount))
}

func (s *Store) debit(who, asset Address, amount *big.Int) {
	s.setBalance(who, asset, new(big.Int).Sub(s.balance(who, asset), amount))
}
