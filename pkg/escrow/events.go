package escrow

import "math/big"

// Domain events, one per state-changing operation. Operations return their
// event on success; callers feeding indexers can fan them out as they like.

// ChallengeCreated is emitted when a challenge is registered and funded.
type ChallengeCreated struct {
	N          *big.Int
	Challenger Address
	Token      Address
	Reward     *big.Int
}

// ChallengeSolved is emitted when a live challenge is resolved by proof.
// SolverShare and PoolShare are each half the reward; on odd rewards the
// remaining unit stays in custody uncredited.
type ChallengeSolved struct {
	N           *big.Int
	Solver      Address
	Token       Address
	SolverShare *big.Int
	PoolShare   *big.Int
}

// ChallengeReclaimed is emitted when an expired, unsolved challenge is
// claimed back by its challenger. PoolShare is half the asset's prize pool
// at claim time, not half of this challenge's own contribution.
type ChallengeReclaimed struct {
	N          *big.Int
	Challenger Address
	Token      Address
	Reward     *big.Int
	PoolShare  *big.Int
}

// WithdrawalMade is emitted when a participant withdraws from their balance.
type WithdrawalMade struct {
	Account Address
	Token   Address
	Amount  *big.Int
	Balance *big.Int // remaining balance after the withdrawal
}
