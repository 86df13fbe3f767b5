package composite

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// ProverResult contains proving metrics and the proof artifact
type ProverResult struct {
	Proof         []byte
	PublicSignals [2]*big.Int // [0] compositeness bit, [1] claim value
	ProvingTime   time.Duration
	Constraints   int
}

// ProvingKeys holds Groth16 keys for the composite circuit
type ProvingKeys struct {
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
	CCS constraint.ConstraintSystem
}

var (
	cachedKeys *ProvingKeys
	keysMutex  sync.Mutex
)

// Setup performs trusted setup for the composite circuit (cached)
func Setup() (*ProvingKeys, error) {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	if cachedKeys != nil {
		return cachedKeys, nil
	}

	var c Circuit

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &c)
	if err != nil {
		return nil, fmt.Errorf("composite circuit compilation failed: %w", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup failed: %w", err)
	}

	cachedKeys = &ProvingKeys{
		PK:  pk,
		VK:  vk,
		CCS: ccs,
	}

	return cachedKeys, nil
}

// WitnessInput contains the values for proof generation
type WitnessInput struct {
	// Public claim
	N *big.Int

	// Secret witness: the candidate factors
	P *big.Int
	Q *big.Int
}

// ComputeCompositeness evaluates the circuit's output signal natively:
// 1 iff p*q == n and neither factor is 1 or n. The prover must supply
// this as the first public signal; a mismatch makes the witness unsolvable.
func ComputeCompositeness(n, p, q *big.Int) *big.Int {
	one := big.NewInt(1)
	prod := new(big.Int).Mul(p, q)
	if prod.Cmp(n) == 0 && p.Cmp(one) != 0 && q.Cmp(one) != 0 && p.Cmp(n) != 0 && q.Cmp(n) != 0 {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// Prove generates a proof for the claimed factorization
func Prove(keys *ProvingKeys, input *WitnessInput) (*ProverResult, error) {
	startTime := time.Now()

	if keys == nil {
		var err error
		keys, err = Setup()
		if err != nil {
			return nil, err
		}
	}

	if input.N == nil || input.P == nil || input.Q == nil {
		return nil, fmt.Errorf("witness input requires n, p and q")
	}
	if input.N.BitLen() > ClaimBits {
		return nil, fmt.Errorf("claim exceeds %d bits", ClaimBits)
	}
	if input.P.BitLen() > FactorBits || input.Q.BitLen() > FactorBits {
		return nil, fmt.Errorf("factors exceed %d bits", FactorBits)
	}

	isComposite := ComputeCompositeness(input.N, input.P, input.Q)

	witness := &Circuit{
		IsComposite: isComposite,
		N:           input.N,
		P:           input.P,
		Q:           input.Q,
	}

	fullWitness, err := frontend.NewWitness(witness, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	proof, err := groth16.Prove(keys.CCS, keys.PK, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}

	var proofBuf bytes.Buffer
	if _, err := proof.WriteTo(&proofBuf); err != nil {
		return nil, fmt.Errorf("proof serialization failed: %w", err)
	}

	return &ProverResult{
		Proof:         proofBuf.Bytes(),
		PublicSignals: [2]*big.Int{isComposite, new(big.Int).Set(input.N)},
		ProvingTime:   time.Since(startTime),
		Constraints:   keys.CCS.GetNbConstraints(),
	}, nil
}

// GetVerifyingKeyBytes returns the serialized verifying key for embedding
// or for distribution to standalone verifiers.
func GetVerifyingKeyBytes() ([]byte, error) {
	keys, err := Setup()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := keys.VK.WriteTo(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
