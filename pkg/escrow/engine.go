package escrow

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultWindow is the resolution window in checkpoint units: a challenge
// may be solved up to and including createdAt+window, and reclaimed by its
// challenger strictly after.
const DefaultWindow uint64 = 10

// Engine orchestrates the challenge escrow game. It owns its Store
// exclusively and applies every operation as one atomic step under a
// non-reentrant lock that spans any external transfer call, so a reentrant
// invocation can never observe an intermediate state.
type Engine struct {
	mu sync.Mutex

	self     Address // the engine's own custody identity for transfers
	verifier Verifier
	clock    Clock
	tokens   map[Address]Token // immutable after construction
	window   uint64
	store    *Store
	log      zerolog.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger attaches a structured logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithWindow overrides the resolution window.
func WithWindow(window uint64) Option {
	return func(e *Engine) { e.window = window }
}

// New constructs an Engine holding custody under self, gating proofs
// through verifier, measuring deadlines with clock and supporting exactly
// the given reward tokens. The token set is fixed for the engine's
// lifetime. Construction fails with ErrInvalidAddress on any null identity.
func New(self Address, verifier Verifier, clock Clock, store *Store, tokens []Token, opts ...Option) (*Engine, error) {
	if self.IsZero() {
		return nil, fmt.Errorf("%w: engine identity is zero", ErrInvalidAddress)
	}
	if verifier == nil {
		return nil, fmt.Errorf("%w: verifier is nil", ErrInvalidAddress)
	}
	if clock == nil {
		return nil, fmt.Errorf("%w: clock is nil", ErrInvalidAddress)
	}
	if store == nil {
		store = NewStore()
	}

	supported := make(map[Address]Token, len(tokens))
	for _, tok := range tokens {
		if tok == nil || tok.Address().IsZero() {
			return nil, fmt.Errorf("%w: unsupported token identity", ErrInvalidAddress)
		}
		supported[tok.Address()] = tok
	}

	e := &Engine{
		self:     self,
		verifier: verifier,
		clock:    clock,
		tokens:   supported,
		window:   DefaultWindow,
		store:    store,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// CreateChallenge registers a claim that n is composite, escrowing amount
// of the given asset as the reward. The caller must themselves pass the
// proof gate, so only someone holding a witness can open a challenge. The
// optional capsule is stored opaquely alongside the record (typically a
// timelock-sealed witness). The proof is checked before any value moves.
func (e *Engine) CreateChallenge(caller Address, n *big.Int, asset Address, amount *big.Int, proof Proof, signals PublicSignals, capsule []byte) (*ChallengeCreated, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller.IsZero() {
		return nil, fmt.Errorf("%w: caller is zero", ErrInvalidAddress)
	}
	if n == nil || n.Sign() <= 0 {
		return nil, ErrInvalidClaim
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidRewardAmount
	}
	tok, ok := e.tokens[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedToken, asset)
	}
	if _, exists := e.store.challenge(n); exists {
		return nil, fmt.Errorf("%w: n=%s", ErrChallengeAlreadyExists, n)
	}
	if err := e.checkProof(n, proof, signals); err != nil {
		return nil, err
	}

	// Pull the reward into custody. The record is only inserted after the
	// transfer succeeds, so a failed pull leaves no trace.
	if err := tok.TransferFrom(e.self, caller, e.self, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	c := &Challenge{
		N:          new(big.Int).Set(n),
		Reward:     new(big.Int).Set(amount),
		CreatedAt:  e.clock.Height(),
		Challenger: caller,
		Token:      asset,
		State:      StateLive,
	}
	if len(capsule) > 0 {
		c.Capsule = append([]byte(nil), capsule...)
	}
	e.store.putChallenge(c)

	e.log.Info().
		Str("op", "create").
		Str("n", n.String()).
		Str("challenger", caller.String()).
		Str("token", asset.String()).
		Str("reward", amount.String()).
		Uint64("height", c.CreatedAt).
		Msg("challenge created")

	return &ChallengeCreated{
		N:          new(big.Int).Set(n),
		Challenger: caller,
		Token:      asset,
		Reward:     new(big.Int).Set(amount),
	}, nil
}

// SolveChallenge resolves a live challenge by demonstrating knowledge of a
// witness through the proof gate. Half the reward (integer division) goes
// to the solver's withdrawable balance, half to the asset's shared prize
// pool; the record is kept with the solver set, never deleted, so a solved
// claim can never be replayed or reclaimed.
func (e *Engine) SolveChallenge(caller Address, n *big.Int, proof Proof, signals PublicSignals) (*ChallengeSolved, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller.IsZero() {
		return nil, fmt.Errorf("%w: caller is zero", ErrInvalidAddress)
	}
	if n == nil || n.Sign() <= 0 {
		return nil, ErrInvalidClaim
	}
	c, ok := e.store.challenge(n)
	if !ok {
		return nil, fmt.Errorf("%w: n=%s", ErrChallengeDoesNotExist, n)
	}
	if e.clock.Height() > c.Deadline(e.window) {
		return nil, fmt.Errorf("%w: deadline was height %d", ErrChallengeExpired, c.Deadline(e.window))
	}
	if c.State == StateSolved {
		return nil, fmt.Errorf("%w: solved by %s", ErrChallengeAlreadySolved, c.Solver)
	}
	if err := e.checkProof(n, proof, signals); err != nil {
		return nil, err
	}

	// Integer split: on odd rewards one unit stays in custody, credited to
	// neither the solver nor the pool.
	half := new(big.Int).Rsh(c.Reward, 1)
	e.store.addToPool(c.Token, half)
	e.store.credit(caller, c.Token, half)
	c.Solver = caller
	c.State = StateSolved

	e.log.Info().
		Str("op", "solve").
		Str("n", n.String()).
		Str("solver", caller.String()).
		Str("token", c.Token.String()).
		Str("share", half.String()).
		Msg("challenge solved")

	return &ChallengeSolved{
		N:           new(big.Int).Set(n),
		Solver:      caller,
		Token:       c.Token,
		SolverShare: new(big.Int).Set(half),
		PoolShare:   new(big.Int).Set(half),
	}, nil
}

// ClaimExpiredChallenge lets the original challenger collect on a
// challenge nobody solved in time: the full reward plus half of the
// asset's current prize pool is credited to the challenger's balance and
// the record is deleted, freeing the key for reuse. The pool is fungible
// across all challenges of the asset, so the share is half of whatever the
// pool holds now, not half of this challenge's own contribution.
func (e *Engine) ClaimExpiredChallenge(caller Address, n *big.Int) (*ChallengeReclaimed, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller.IsZero() {
		return nil, fmt.Errorf("%w: caller is zero", ErrInvalidAddress)
	}
	if n == nil || n.Sign() <= 0 {
		return nil, ErrInvalidClaim
	}
	c, ok := e.store.challenge(n)
	if !ok {
		return nil, fmt.Errorf("%w: n=%s", ErrChallengeDoesNotExist, n)
	}
	if caller != c.Challenger {
		return nil, fmt.Errorf("%w: challenger is %s", ErrUnauthorizedChallenger, c.Challenger)
	}
	if c.State == StateSolved {
		return nil, fmt.Errorf("%w: solved by %s", ErrChallengeAlreadySolved, c.Solver)
	}
	if e.clock.Height() <= c.Deadline(e.window) {
		return nil, fmt.Errorf("%w: open until height %d", ErrChallengeNotExpired, c.Deadline(e.window))
	}

	poolShare := new(big.Int).Rsh(e.store.pool(c.Token), 1)
	payout := new(big.Int).Add(c.Reward, poolShare)
	e.store.credit(caller, c.Token, payout)
	e.store.subFromPool(c.Token, poolShare)
	e.store.deleteChallenge(n)

	e.log.Info().
		Str("op", "reclaim").
		Str("n", n.String()).
		Str("challenger", caller.String()).
		Str("token", c.Token.String()).
		Str("reward", c.Reward.String()).
		Str("poolShare", poolShare.String()).
		Msg("expired challenge reclaimed")

	return &ChallengeReclaimed{
		N:          new(big.Int).Set(n),
		Challenger: caller,
		Token:      c.Token,
		Reward:     new(big.Int).Set(c.Reward),
		PoolShare:  poolShare,
	}, nil
}

// Withdraw moves amount of the caller's withdrawable balance out of
// custody. The balance is debited before the external transfer is invoked;
// if the transfer fails the debit is rolled back and the operation reports
// failure with no net effect.
func (e *Engine) Withdraw(caller Address, asset Address, amount *big.Int) (*WithdrawalMade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller.IsZero() {
		return nil, fmt.Errorf("%w: caller is zero", ErrInvalidAddress)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	tok, ok := e.tokens[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedToken, asset)
	}
	available := e.store.balance(caller, asset)
	if available.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: requested %s, available %s",
			ErrInsufficientBalance, amount, available)
	}

	// Debit before the external call.
	e.store.debit(caller, asset, amount)
	if err := tok.Transfer(e.self, caller, amount); err != nil {
		e.store.credit(caller, asset, amount)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	remaining := e.store.balance(caller, asset)

	e.log.Info().
		Str("op", "withdraw").
		Str("account", caller.String()).
		Str("token", asset.String()).
		Str("amount", amount.String()).
		Str("remaining", remaining.String()).
		Msg("withdrawal made")

	return &WithdrawalMade{
		Account: caller,
		Token:   asset,
		Amount:  new(big.Int).Set(amount),
		Balance: new(big.Int).Set(remaining),
	}, nil
}

// ChallengeFor returns a copy of the record at n, if any. Solved records
// remain queryable indefinitely; reclaimed ones disappear.
func (e *Engine) ChallengeFor(n *big.Int) (*Challenge, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n == nil {
		return nil, false
	}
	c, ok := e.store.challenge(n)
	if !ok {
		return nil, false
	}
	return c.clone(), true
}

// PrizePool returns the current shared pool for asset.
func (e *Engine) PrizePool(asset Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(big.Int).Set(e.store.pool(asset))
}

// Balance returns who's withdrawable balance in asset.
func (e *Engine) Balance(who, asset Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(big.Int).Set(e.store.balance(who, asset))
}

// IsSupported reports whether asset belongs to the fixed token set.
func (e *Engine) IsSupported(asset Address) bool {
	_, ok := e.tokens[asset]
	return ok
}

// Window returns the resolution window in checkpoint units.
func (e *Engine) Window() uint64 {
	return e.window
}

// Self returns the engine's custody identity.
func (e *Engine) Self() Address {
	return e.self
}
