package escrow

import (
	"encoding/hex"
	"math/big"
)

// Address is a 20-byte participant or asset identity. The zero value is the
// null identity and is rejected everywhere an identity is required.
type Address [20]byte

// ZeroAddress is the null identity.
var ZeroAddress = Address{}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// ParseAddress decodes a hex address with optional 0x prefix.
func ParseAddress(s string) (Address, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 20 {
		return ZeroAddress, ErrInvalidAddress
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// Proof is opaque Groth16 proof material in affine-coordinate form. The
// engine never interprets the coordinates; they pass straight through to
// the verifier oracle.
type Proof struct {
	A [2]*big.Int
	B [2][2]*big.Int
	C [2]*big.Int
}

// PublicSignals is the fixed two-element public signal vector of a
// compositeness proof: index 0 carries the circuit's boolean compositeness
// output, index 1 echoes the claim value the proof was generated for.
type PublicSignals [2]*big.Int

// Verifier is the external proof oracle. It decides mathematical validity
// of a proof relative to its public signals and nothing else; semantic
// checks on the signals are the engine's job.
type Verifier interface {
	VerifyProof(proof Proof, signals PublicSignals) bool
}

// Token is the asset transfer capability with standard fungible-asset
// semantics: conservation, no silent partial transfers. The explicit from
// parameters replace the EVM's implicit message sender.
type Token interface {
	// Address identifies the asset.
	Address() Address
	// TransferFrom moves amount from from to to on behalf of operator,
	// subject to the token's allowance rules.
	TransferFrom(operator, from, to Address, amount *big.Int) error
	// Transfer moves amount out of from's own holdings.
	Transfer(from, to Address, amount *big.Int) error
	// BalanceOf reports the current holdings of who.
	BalanceOf(who Address) *big.Int
}

// Clock is the monotonically increasing checkpoint counter that orders
// operations and measures the resolution window. Block heights and drand
// rounds both satisfy it.
type Clock interface {
	Height() uint64
}

// ChallengeState tracks the phase of a registered challenge. Absence from
// the registry is the third state: a reclaimed key is deleted and may be
// reused, a solved record is kept forever.
type ChallengeState uint8

const (
	StateLive ChallengeState = iota
	StateSolved
)

func (s ChallengeState) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateSolved:
		return "solved"
	default:
		return "unknown"
	}
}

// Challenge records an escrowed claim awaiting proof-gated resolution.
type Challenge struct {
	N          *big.Int
	Reward     *big.Int
	CreatedAt  uint64
	Challenger Address
	Token      Address
	Solver     Address // zero until solved
	State      ChallengeState
	// Capsule optionally holds a timelock-sealed witness supplied at
	// creation. The engine stores and echoes it, never interprets it.
	Capsule []byte
}

// Deadline is the last checkpoint at which the challenge may still be
// solved; one past it the challenger may reclaim.
func (c *Challenge) Deadline(window uint64) uint64 {
	return c.CreatedAt + window
}

func (c *Challenge) clone() *Challenge {
	cp := *c
	cp.N = new(big.Int).Set(c.N)
	cp.Reward = new(big.Int).Set(c.Reward)
	if c.Capsule != nil {
		cp.Capsule = append([]byte(nil), c.Capsule...)
	}
	return &cp
}
