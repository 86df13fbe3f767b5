// Package oracle implements the escrow engine's verifier boundary with a
// real Groth16 verifier over the composite circuit. Proofs travel in
// affine-coordinate form (A, B, C) plus the two-element public signal
// vector, and are rebuilt into gnark objects for verification.
package oracle

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"

	"zkbounty/circuits/composite"
	"zkbounty/pkg/escrow"
)

// Oracle verifies compositeness proofs against a fixed verifying key. It is
// stateless beyond the key and safe for concurrent use.
type Oracle struct {
	vk groth16.VerifyingKey
}

// New wraps an already-deserialized verifying key.
func New(vk groth16.VerifyingKey) *Oracle {
	return &Oracle{vk: vk}
}

// NewFromBytes deserializes a verifying key, e.g. one distributed with a
// deployment's configuration.
func NewFromBytes(vkBytes []byte) (*Oracle, error) {
	if len(vkBytes) == 0 {
		return nil, fmt.Errorf("verifying key is empty")
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return nil, fmt.Errorf("failed to deserialize verifying key: %w", err)
	}
	return &Oracle{vk: vk}, nil
}

// NewFromSetup builds an oracle from the cached local circuit setup.
// Intended for tests and single-process deployments; distributed setups
// should pin a key via NewFromBytes.
func NewFromSetup() (*Oracle, error) {
	keys, err := composite.Setup()
	if err != nil {
		return nil, err
	}
	return &Oracle{vk: keys.VK}, nil
}

// VerifyProof reports whether the proof is mathematically valid relative to
// the public signals. It deliberately returns only a boolean: binding and
// semantic checks on the signals belong to the engine's proof gate.
func (o *Oracle) VerifyProof(proof escrow.Proof, signals escrow.PublicSignals) bool {
	if signals[0] == nil || signals[1] == nil {
		return false
	}

	p, err := proofFromParts(proof)
	if err != nil {
		return false
	}

	publicWitness := &composite.Circuit{
		IsComposite: signals[0],
		N:           signals[1],
	}
	pubWitness, err := frontend.NewWitness(publicWitness, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}

	return groth16.Verify(p, o.vk, pubWitness) == nil
}

var _ escrow.Verifier = (*Oracle)(nil)

// ExportProof unpacks a serialized Groth16 proof into the coordinate form
// the engine's operations accept.
func ExportProof(proofBytes []byte) (escrow.Proof, error) {
	raw := groth16.NewProof(ecc.BN254)
	if _, err := raw.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return escrow.Proof{}, fmt.Errorf("proof deserialization failed: %w", err)
	}
	p, ok := raw.(*groth16bn254.Proof)
	if !ok {
		return escrow.Proof{}, fmt.Errorf("unexpected proof type %T", raw)
	}

	var out escrow.Proof
	out.A[0] = p.Ar.X.BigInt(new(big.Int))
	out.A[1] = p.Ar.Y.BigInt(new(big.Int))
	out.B[0][0] = p.Bs.X.A0.BigInt(new(big.Int))
	out.B[0][1] = p.Bs.X.A1.BigInt(new(big.Int))
	out.B[1][0] = p.Bs.Y.A0.BigInt(new(big.Int))
	out.B[1][1] = p.Bs.Y.A1.BigInt(new(big.Int))
	out.C[0] = p.Krs.X.BigInt(new(big.Int))
	out.C[1] = p.Krs.Y.BigInt(new(big.Int))
	return out, nil
}

// proofFromParts rebuilds a gnark proof object from coordinate form,
// rejecting points that are off the curve or outside the prime subgroup.
func proofFromParts(proof escrow.Proof) (*groth16bn254.Proof, error) {
	for _, c := range []*big.Int{proof.A[0], proof.A[1], proof.C[0], proof.C[1],
		proof.B[0][0], proof.B[0][1], proof.B[1][0], proof.B[1][1]} {
		if c == nil {
			return nil, fmt.Errorf("proof coordinate is nil")
		}
	}

	var p groth16bn254.Proof
	p.Ar.X.SetBigInt(proof.A[0])
	p.Ar.Y.SetBigInt(proof.A[1])
	p.Bs.X.A0.SetBigInt(proof.B[0][0])
	p.Bs.X.A1.SetBigInt(proof.B[0][1])
	p.Bs.Y.A0.SetBigInt(proof.B[1][0])
	p.Bs.Y.A1.SetBigInt(proof.B[1][1])
	p.Krs.X.SetBigInt(proof.C[0])
	p.Krs.Y.SetBigInt(proof.C[1])

	if !p.Ar.IsOnCurve() || !p.Krs.IsOnCurve() || !p.Bs.IsOnCurve() {
		return nil, fmt.Errorf("proof point not on curve")
	}
	if !p.Ar.IsInSubGroup() || !p.Krs.IsInSubGroup() || !p.Bs.IsInSubGroup() {
		return nil, fmt.Errorf("proof point not in subgroup")
	}

	return &p, nil
}
