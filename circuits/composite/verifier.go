package composite

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
)

// Verify checks a serialized proof against the public signal pair
// [isComposite, n]. It establishes only mathematical validity relative to
// those signals; whether the signals are the ones a caller should accept
// is the caller's problem.
func Verify(keys *ProvingKeys, proofBytes []byte, signals [2]*big.Int) error {
	if keys == nil {
		var err error
		keys, err = Setup()
		if err != nil {
			return err
		}
	}

	if signals[0] == nil || signals[1] == nil {
		return fmt.Errorf("public signals must be non-nil")
	}

	publicWitness := &Circuit{
		IsComposite: signals[0],
		N:           signals[1],
	}

	pubWitness, err := frontend.NewWitness(publicWitness, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("public witness creation failed: %w", err)
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("proof deserialization failed: %w", err)
	}

	if err := groth16.Verify(proof, keys.VK, pubWitness); err != nil {
		return fmt.Errorf("proof verification failed: %w", err)
	}

	return nil
}
