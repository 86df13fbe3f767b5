package escrow

import (
	"fmt"
	"math/big"
)

// Public signal layout of a compositeness proof.
const (
	signalComposite = 0 // circuit output: 1 = composite proven
	signalClaim     = 1 // echoed claim value n
)

var one = big.NewInt(1)

// checkProof is the proof gate: the full set of checks performed before a
// submitted proof is trusted, identical at creation and at solve time.
//
//  1. The proof must be about this claim. The echoed signal binds the proof
//     to n, so a proof generated for one challenge cannot be replayed
//     against another.
//  2. The oracle must accept the proof relative to the signals. The oracle
//     checks only mathematical validity; it cannot know which signals the
//     engine should accept.
//  3. The compositeness signal must be 1. A mathematically valid proof can
//     legitimately assert "not composite" and must be rejected on its own
//     distinct error.
func (e *Engine) checkProof(n *big.Int, proof Proof, signals PublicSignals) error {
	if signals[signalComposite] == nil || signals[signalClaim] == nil {
		return fmt.Errorf("%w: missing public signals", ErrInvalidProof)
	}

	if signals[signalClaim].Cmp(n) != 0 {
		return fmt.Errorf("%w: proof is for %s, claim is %s",
			ErrProofNotForClaim, signals[signalClaim], n)
	}

	if !e.verifier.VerifyProof(proof, signals) {
		return ErrInvalidProof
	}

	if signals[signalComposite].Cmp(one) != 0 {
		return fmt.Errorf("%w: compositeness signal is %s",
			ErrNotComposite, signals[signalComposite])
	}

	return nil
}
