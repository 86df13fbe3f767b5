package composite

import (
	"github.com/consensys/gnark/frontend"
)

// ClaimBits bounds the claim value N. Factors are bounded at half that, so
// a factor product can never wrap the BN254 scalar field.
const (
	ClaimBits  = 128
	FactorBits = 64
)

// Circuit proves knowledge of a nontrivial factorization of N.
//
// Public signal layout (declaration order is the wire order):
//
//	signals[0] = IsComposite (1 iff P*Q == N with P,Q both nontrivial)
//	signals[1] = N           (the claim value, echoed for binding)
//
// The witness factors P and Q are never revealed. The circuit does not
// force IsComposite to 1: a prover holding only the trivial factorization
// can still produce a valid proof asserting 0, which downstream gating
// must reject on the semantic signal rather than on proof validity.
type Circuit struct {
	// Public Inputs
	IsComposite frontend.Variable `gnark:",public"`
	N           frontend.Variable `gnark:",public"`

	// Witness
	P frontend.Variable
	Q frontend.Variable
}

func (c *Circuit) Define(api frontend.API) error {
	// Range-constrain the claim and both factors. Without this a "factor"
	// could be a field element acting as a modular inverse and fake a
	// factorization via wraparound.
	api.ToBinary(c.N, ClaimBits)
	api.ToBinary(c.P, FactorBits)
	api.ToBinary(c.Q, FactorBits)

	// productMatches = (P*Q == N)
	productMatches := api.IsZero(api.Sub(api.Mul(c.P, c.Q), c.N))

	// Nontriviality: neither factor is 1 nor N itself. Together with
	// productMatches this rules out 0, 1, and primes, since their only
	// representations as P*Q use a trivial factor.
	pNotOne := api.Sub(1, api.IsZero(api.Sub(c.P, 1)))
	qNotOne := api.Sub(1, api.IsZero(api.Sub(c.Q, 1)))
	pNotN := api.Sub(1, api.IsZero(api.Sub(c.P, c.N)))
	qNotN := api.Sub(1, api.IsZero(api.Sub(c.Q, c.N)))

	composite := api.Mul(productMatches, pNotOne, qNotOne, pNotN, qNotN)
	api.AssertIsEqual(c.IsComposite, composite)

	return nil
}
