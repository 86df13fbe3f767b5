package escrow

import "errors"

// Every operation fails atomically: an error means no state changed and no
// funds moved. Callers distinguish causes with errors.Is.
var (
	// Input validation — safe to retry with corrected input.
	ErrInvalidAddress      = errors.New("invalid address")
	ErrInvalidClaim        = errors.New("claim must be a positive integer")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidRewardAmount = errors.New("reward amount must be positive")
	ErrUnsupportedToken    = errors.New("unsupported token")

	// State conflicts — re-read state before retrying.
	ErrChallengeAlreadyExists = errors.New("challenge already exists")
	ErrChallengeDoesNotExist  = errors.New("challenge does not exist")
	ErrChallengeAlreadySolved = errors.New("challenge already solved")
	ErrChallengeExpired       = errors.New("challenge expired")
	ErrChallengeNotExpired    = errors.New("challenge not expired")

	// Authorization.
	ErrUnauthorizedChallenger = errors.New("caller is not the challenger")

	// Proof gate — binding, cryptographic and semantic failures stay distinct.
	ErrProofNotForClaim = errors.New("proof public signal does not match claim")
	ErrInvalidProof     = errors.New("invalid proof")
	ErrNotComposite     = errors.New("proof does not assert compositeness")

	// Ledger.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// External transfer capability failures, wrapped around the token's error.
	ErrTransferFailed = errors.New("token transfer failed")
)
