package escrow

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
)

// AddressFromPubKey derives a participant address from a secp256k1 public
// key: the trailing 20 bytes of SHA256 over the compressed point. Distinct
// keys collide with negligible probability, which is all the registry needs.
func AddressFromPubKey(pub *btcec.PublicKey) Address {
	digest := sha256.Sum256(pub.SerializeCompressed())
	var a Address
	copy(a[:], digest[12:])
	return a
}

// AddressFromSeed derives a deterministic address from arbitrary seed
// bytes by treating their hash as a secp256k1 private key. Intended for
// tests and tooling, not for custody of real keys.
func AddressFromSeed(seed []byte) Address {
	digest := sha256.Sum256(seed)
	_, pub := btcec.PrivKeyFromBytes(digest[:])
	return AddressFromPubKey(pub)
}
