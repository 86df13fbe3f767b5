package escrow_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"zkbounty/pkg/escrow"
	"zkbounty/pkg/token"
)

// stubVerifier is a deterministic oracle: it accepts or rejects every
// proof, letting the gate's own checks be exercised in isolation from
// real cryptography.
type stubVerifier struct{ ok bool }

func (s stubVerifier) VerifyProof(escrow.Proof, escrow.PublicSignals) bool { return s.ok }

type manualClock struct{ height uint64 }

func (c *manualClock) Height() uint64 { return c.height }

// compositeSignals builds the signal vector a well-formed proof for n
// carries: compositeness bit set, claim echoed.
func compositeSignals(n int64) escrow.PublicSignals {
	return escrow.PublicSignals{big.NewInt(1), big.NewInt(n)}
}

type fixture struct {
	engine *escrow.Engine
	clock  *manualClock
	tok    *token.Token
	self   escrow.Address
	alice  escrow.Address
	bob    escrow.Address
}

func newFixture(t *testing.T, opts ...escrow.Option) *fixture {
	t.Helper()
	f := &fixture{
		clock: &manualClock{height: 100},
		tok:   token.New("GAME"),
		self:  escrow.AddressFromSeed([]byte("engine")),
		alice: escrow.AddressFromSeed([]byte("alice")),
		bob:   escrow.AddressFromSeed([]byte("bob")),
	}

	eng, err := escrow.New(f.self, stubVerifier{ok: true}, f.clock, escrow.NewStore(), []escrow.Token{f.tok}, opts...)
	require.NoError(t, err)
	f.engine = eng

	supply := big.NewInt(1_000_000)
	f.tok.Mint(f.alice, supply)
	f.tok.Mint(f.bob, supply)
	f.tok.Approve(f.alice, f.self, supply)
	f.tok.Approve(f.bob, f.self, supply)
	return f
}

func (f *fixture) create(t *testing.T, n, reward int64) *escrow.ChallengeCreated {
	t.Helper()
	ev, err := f.engine.CreateChallenge(f.alice, big.NewInt(n), f.tok.Address(),
		big.NewInt(reward), escrow.Proof{}, compositeSignals(n), nil)
	require.NoError(t, err)
	return ev
}

func TestNewValidation(t *testing.T) {
	clock := &manualClock{}
	tok := token.New("GAME")
	self := escrow.AddressFromSeed([]byte("engine"))

	_, err := escrow.New(escrow.ZeroAddress, stubVerifier{}, clock, nil, []escrow.Token{tok})
	require.ErrorIs(t, err, escrow.ErrInvalidAddress)

	_, err = escrow.New(self, nil, clock, nil, []escrow.Token{tok})
	require.ErrorIs(t, err, escrow.ErrInvalidAddress)

	_, err = escrow.New(self, stubVerifier{}, nil, nil, []escrow.Token{tok})
	require.ErrorIs(t, err, escrow.ErrInvalidAddress)

	_, err = escrow.New(self, stubVerifier{}, clock, nil, []escrow.Token{nil})
	require.ErrorIs(t, err, escrow.ErrInvalidAddress)

	eng, err := escrow.New(self, stubVerifier{}, clock, nil, []escrow.Token{tok})
	require.NoError(t, err)
	require.True(t, eng.IsSupported(tok.Address()))
	require.False(t, eng.IsSupported(escrow.AddressFromSeed([]byte("other"))))
	require.Equal(t, escrow.DefaultWindow, eng.Window())
}

func TestCreateChallenge(t *testing.T) {
	f := newFixture(t)

	ev := f.create(t, 33, 100)
	require.Equal(t, int64(33), ev.N.Int64())
	require.Equal(t, f.alice, ev.Challenger)
	require.Equal(t, f.tok.Address(), ev.Token)
	require.Equal(t, int64(100), ev.Reward.Int64())

	c, ok := f.engine.ChallengeFor(big.NewInt(33))
	require.True(t, ok)
	require.Equal(t, escrow.StateLive, c.State)
	require.Equal(t, int64(100), c.Reward.Int64())
	require.Equal(t, uint64(100), c.CreatedAt)
	require.Equal(t, f.alice, c.Challenger)
	require.True(t, c.Solver.IsZero())

	// The reward moved from the challenger into custody.
	require.Equal(t, int64(1_000_000-100), f.tok.BalanceOf(f.alice).Int64())
	require.Equal(t, int64(100), f.tok.BalanceOf(f.self).Int64())
}

func TestCreateChallengeRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateChallenge(f.alice, big.NewInt(33), f.tok.Address(),
		big.NewInt(0), escrow.Proof{}, compositeSignals(33), nil)
	require.ErrorIs(t, err, escrow.ErrInvalidRewardAmount)

	_, err = f.engine.CreateChallenge(f.alice, big.NewInt(0), f.tok.Address(),
		big.NewInt(100), escrow.Proof{}, compositeSignals(0), nil)
	require.ErrorIs(t, err, escrow.ErrInvalidClaim)

	unknown := escrow.AddressFromSeed([]byte("unknown-asset"))
	_, err = f.engine.CreateChallenge(f.alice, big.NewInt(33), unknown,
		big.NewInt(100), escrow.Proof{}, compositeSignals(33), nil)
	require.ErrorIs(t, err, escrow.ErrUnsupportedToken)

	f.create(t, 33, 100)
	_, err = f.engine.CreateChallenge(f.bob, big.NewInt(33), f.tok.Address(),
		big.NewInt(100), escrow.Proof{}, compositeSignals(33), nil)
	require.ErrorIs(t, err, escrow.ErrChallengeAlreadyExists)
}

func TestProofGate(t *testing.T) {
	f := newFixture(t)

	// A proof bound to a different claim fails regardless of its
	// compositeness signal.
	_, err := f.engine.CreateChallenge(f.alice, big.NewInt(33), f.tok.Address(),
		big.NewInt(100), escrow.Proof{}, compositeSignals(35), nil)
	require.ErrorIs(t, err, escrow.ErrProofNotForClaim)

	// A valid proof that asserts "not composite" is distinct from an
	// invalid proof.
	notComposite := escrow.PublicSignals{big.NewInt(0), big.NewInt(33)}
	_, err = f.engine.CreateChallenge(f.alice, big.NewInt(33), f.tok.Address(),
		big.NewInt(100), escrow.Proof{}, notComposite, nil)
	require.ErrorIs(t, err, escrow.ErrNotComposite)

	// No funds moved through any of the rejections.
	require.Equal(t, int64(1_000_000), f.tok.BalanceOf(f.alice).Int64())
	require.Equal(t, int64(0), f.tok.BalanceOf(f.self).Int64())
}

func TestProofGateInvalidProof(t *testing.T) {
	clock := &manualClock{height: 100}
	tok := token.New("GAME")
	self := escrow.AddressFromSeed([]byte("engine"))
	alice := escrow.AddressFromSeed([]byte("alice"))
	eng, err := escrow.New(self, stubVerifier{ok: false}, clock, nil, []escrow.Token{tok})
	require.NoError(t, err)
	tok.Mint(alice, big.NewInt(1000))
	tok.Approve(alice, self, big.NewInt(1000))

	_, err = eng.CreateChallenge(alice, big.NewInt(33), tok.Address(),
		big.NewInt(100), escrow.Proof{}, compositeSignals(33), nil)
	require.ErrorIs(t, err, escrow.ErrInvalidProof)
	require.Equal(t, int64(1000), tok.BalanceOf(alice).Int64())
}

func TestCreateChallengeFailedPull(t *testing.T) {
	f := newFixture(t)

	// Revoke the allowance so the pull fails; the proof gate passes but no
	// record may be left behind.
	f.tok.Approve(f.alice, f.self, big.NewInt(0))
	_, err := f.engine.CreateChallenge(f.alice, big.NewInt(33), f.tok.Address(),
		big.NewInt(100), escrow.Proof{}, compositeSignals(33), nil)
	require.ErrorIs(t, err, escrow.ErrTransferFailed)

	_, ok := f.engine.ChallengeFor(big.NewInt(33))
	require.False(t, ok)
}

func TestSolveChallenge(t *testing.T) {
	f := newFixture(t)
	f.create(t, 33, 100)

	ev, err := f.engine.SolveChallenge(f.bob, big.NewInt(33), escrow.Proof{}, compositeSignals(33))
	require.NoError(t, err)
	require.Equal(t, f.bob, ev.Solver)
	require.Equal(t, int64(50), ev.SolverShare.Int64())
	require.Equal(t, int64(50), ev.PoolShare.Int64())

	require.Equal(t, int64(50), f.engine.Balance(f.bob, f.tok.Address()).Int64())
	require.Equal(t, int64(50), f.engine.PrizePool(f.tok.Address()).Int64())

	c, ok := f.engine.ChallengeFor(big.NewInt(33))
	require.True(t, ok)
	require.Equal(t, escrow.StateSolved, c.State)
	require.Equal(t, f.bob, c.Solver)

	// Exactly-once: a second solve fails, and so does reclaiming.
	_, err = f.engine.SolveChallenge(f.bob, big.NewInt(33), escrow.Proof{}, compositeSignals(33))
	require.ErrorIs(t, err, escrow.ErrChallengeAlreadySolved)

	f.clock.height += escrow.DefaultWindow + 1
	_, err = f.engine.ClaimExpiredChallenge(f.alice, big.NewInt(33))
	require.ErrorIs(t, err, escrow.ErrChallengeAlreadySolved)

	// A solved key can never be recreated.
	_, err = f.engine.CreateChallenge(f.alice, big.NewInt(33), f.tok.Address(),
		big.NewInt(100), escrow.Proof{}, compositeSignals(33), nil)
	require.ErrorIs(t, err, escrow.ErrChallengeAlreadyExists)
}

func TestSolveDeadlineBoundary(t *testing.T) {
	f := newFixture(t)
	f.create(t, 33, 100)

	// Exactly created+window still solves.
	f.clock.height = 100 + escrow.DefaultWindow
	_, err := f.engine.SolveChallenge(f.bob, big.NewInt(33), escrow.Proof{}, compositeSignals(33))
	require.NoError(t, err)

	f.create(t, 35, 100)
	f.clock.height += escrow.DefaultWindow + 1
	_, err = f.engine.SolveChallenge(f.bob, big.NewInt(35), escrow.Proof{}, compositeSignals(35))
	require.ErrorIs(t, err, escrow.ErrChallengeExpired)
}

func TestSolveRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.SolveChallenge(f.bob, big.NewInt(99), escrow.Proof{}, compositeSignals(99))
	require.ErrorIs(t, err, escrow.ErrChallengeDoesNotExist)

	f.create(t, 33, 100)
	_, err = f.engine.SolveChallenge(f.bob, big.NewInt(33), escrow.Proof{}, compositeSignals(34))
	require.ErrorIs(t, err, escrow.ErrProofNotForClaim)

	notComposite := escrow.PublicSignals{big.NewInt(0), big.NewInt(33)}
	_, err = f.engine.SolveChallenge(f.bob, big.NewInt(33), escrow.Proof{}, notComposite)
	require.ErrorIs(t, err, escrow.ErrNotComposite)

	// Nothing was credited through the failures.
	require.Equal(t, int64(0), f.engine.Balance(f.bob, f.tok.Address()).Int64())
}

func TestClaimExpiredChallenge(t *testing.T) {
	f := newFixture(t)
	asset := f.tok.Address()

	// Feed the pool with a solved challenge first: pool = 50.
	f.create(t, 21, 100)
	_, err := f.engine.SolveChallenge(f.bob, big.NewInt(21), escrow.Proof{}, compositeSignals(21))
	require.NoError(t, err)

	f.create(t, 33, 100)

	_, err = f.engine.ClaimExpiredChallenge(f.alice, big.NewInt(33))
	require.ErrorIs(t, err, escrow.ErrChallengeNotExpired)

	// Boundary: exactly created+window is still not expired.
	f.clock.height = 100 + escrow.DefaultWindow
	_, err = f.engine.ClaimExpiredChallenge(f.alice, big.NewInt(33))
	require.ErrorIs(t, err, escrow.ErrChallengeNotExpired)

	f.clock.height++

	_, err = f.engine.ClaimExpiredChallenge(f.bob, big.NewInt(33))
	require.ErrorIs(t, err, escrow.ErrUnauthorizedChallenger)

	ev, err := f.engine.ClaimExpiredChallenge(f.alice, big.NewInt(33))
	require.NoError(t, err)
	require.Equal(t, int64(100), ev.Reward.Int64())
	// Half of the asset's current pool, fed by the other challenge.
	require.Equal(t, int64(25), ev.PoolShare.Int64())

	require.Equal(t, int64(125), f.engine.Balance(f.alice, asset).Int64())
	require.Equal(t, int64(25), f.engine.PrizePool(asset).Int64())

	// The record is gone and the key is free for reuse.
	_, ok := f.engine.ChallengeFor(big.NewInt(33))
	require.False(t, ok)
	f.create(t, 33, 40)

	// Claiming again fails: the record no longer exists.
	_, err = f.engine.ClaimExpiredChallenge(f.alice, big.NewInt(99))
	require.ErrorIs(t, err, escrow.ErrChallengeDoesNotExist)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	asset := f.tok.Address()

	f.create(t, 33, 100)
	_, err := f.engine.SolveChallenge(f.bob, big.NewInt(33), escrow.Proof{}, compositeSignals(33))
	require.NoError(t, err)
	require.Equal(t, int64(50), f.engine.Balance(f.bob, asset).Int64())

	_, err = f.engine.Withdraw(f.bob, asset, big.NewInt(0))
	require.ErrorIs(t, err, escrow.ErrInvalidAmount)

	unknown := escrow.AddressFromSeed([]byte("unknown-asset"))
	_, err = f.engine.Withdraw(f.bob, unknown, big.NewInt(10))
	require.ErrorIs(t, err, escrow.ErrUnsupportedToken)

	_, err = f.engine.Withdraw(f.bob, asset, big.NewInt(60))
	require.ErrorIs(t, err, escrow.ErrInsufficientBalance)
	require.Contains(t, err.Error(), "requested 60")
	require.Contains(t, err.Error(), "available 50")
	// A failed withdrawal leaves the balance untouched.
	require.Equal(t, int64(50), f.engine.Balance(f.bob, asset).Int64())

	before := f.tok.BalanceOf(f.bob)
	ev, err := f.engine.Withdraw(f.bob, asset, big.NewInt(30))
	require.NoError(t, err)
	require.Equal(t, int64(30), ev.Amount.Int64())
	require.Equal(t, int64(20), ev.Balance.Int64())
	require.Equal(t, int64(20), f.engine.Balance(f.bob, asset).Int64())
	require.Equal(t, new(big.Int).Add(before, big.NewInt(30)), f.tok.BalanceOf(f.bob))
}

func TestOddRewardDust(t *testing.T) {
	f := newFixture(t)
	asset := f.tok.Address()

	f.create(t, 33, 101)
	ev, err := f.engine.SolveChallenge(f.bob, big.NewInt(33), escrow.Proof{}, compositeSignals(33))
	require.NoError(t, err)

	// Integer split: 101 -> 50 + 50, one unit stays in custody uncredited.
	require.Equal(t, int64(50), ev.SolverShare.Int64())
	require.Equal(t, int64(50), f.engine.Balance(f.bob, asset).Int64())
	require.Equal(t, int64(50), f.engine.PrizePool(asset).Int64())
	require.Equal(t, int64(101), f.tok.BalanceOf(f.self).Int64())
}

func TestCapsuleStoredOpaque(t *testing.T) {
	f := newFixture(t)
	capsule := []byte("sealed-witness-bytes")

	_, err := f.engine.CreateChallenge(f.alice, big.NewInt(33), f.tok.Address(),
		big.NewInt(100), escrow.Proof{}, compositeSignals(33), capsule)
	require.NoError(t, err)

	c, ok := f.engine.ChallengeFor(big.NewInt(33))
	require.True(t, ok)
	require.Equal(t, capsule, c.Capsule)

	// Query results are copies; mutating them must not touch the record.
	c.Capsule[0] = 'X'
	c2, _ := f.engine.ChallengeFor(big.NewInt(33))
	require.Equal(t, byte('s'), c2.Capsule[0])
}

func TestCustomWindow(t *testing.T) {
	f := newFixture(t, escrow.WithWindow(3))
	require.Equal(t, uint64(3), f.engine.Window())

	f.create(t, 33, 100)
	f.clock.height = 104
	_, err := f.engine.SolveChallenge(f.bob, big.NewInt(33), escrow.Proof{}, compositeSignals(33))
	require.ErrorIs(t, err, escrow.ErrChallengeExpired)
}
