package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Market errors
var (
	// ErrMarketNotFound is returned when no market matches the given id.
	ErrMarketNotFound = errors.New("market not found")

	// ErrMarketExists is returned when creating a market whose caller-supplied
	// id is already taken.
	ErrMarketExists = errors.New("market id already exists")

	// ErrMarketNotActive is returned when a stake is placed on a market that
	// is not in StatusActive.
	ErrMarketNotActive = errors.New("market is not active")

	// ErrAlreadyResolved is returned on a repeat resolution attempt. The first
	// committed result is immutable.
	ErrAlreadyResolved = errors.New("market is already resolved")

	// ErrInvalidStatus is returned when a market is created with a status
	// other than upcoming or active.
	ErrInvalidStatus = errors.New("invalid status: markets are created upcoming or active")
)

// Stake errors
var (
	// ErrInvalidStake is returned when a stake request is missing its staker
	// or market id.
	ErrInvalidStake = errors.New("stake requires staker id and market id")

	// ErrInvalidOutcome is returned when the staked outcome is not A or B.
	// Draw is a result, not a stakeable outcome.
	ErrInvalidOutcome = errors.New("invalid outcome: must be A or B")

	// ErrInvalidAmount is returned when the stake amount is not positive.
	ErrInvalidAmount = errors.New("stake amount must be positive")

	// ErrStakeNotFound is returned when no stake matches the given id.
	ErrStakeNotFound = errors.New("stake not found")
)

// Settlement errors
var (
	// ErrMarketNotResolved is returned when settlement is requested for a
	// market that has no attested result yet.
	ErrMarketNotResolved = errors.New("market is not resolved")

	// ErrAlreadySettled is returned when a settlement or refund run has
	// already been committed for the market. Converts the concurrent
	// double-settlement race into first-committer-wins.
	ErrAlreadySettled = errors.New("market is already settled")

	// ErrUnsupportedOutcome is returned when win settlement is invoked on a
	// draw result (use the refund path), or the refund path is invoked on a
	// binary result.
	ErrUnsupportedOutcome = errors.New("unsupported outcome for this settlement path")
)

// Oracle errors
var (
	// ErrInvalidResult is returned when the attested result is not A, B or draw.
	ErrInvalidResult = errors.New("invalid result: must be A, B or draw")

	// ErrMissingSource is returned when an attestation has no source identifier.
	ErrMissingSource = errors.New("attestation source is required")
)

// Account errors
var (
	// ErrAccountNotFound is returned when no account exists for the staker.
	// Accounts are created lazily by the first stake.
	ErrAccountNotFound = errors.New("account not found")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid admin token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the token lacks the required role.
	ErrForbidden = errors.New("forbidden: insufficient permissions")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrMarketNotFound,
	ErrStakeNotFound,
	ErrAccountNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a violated state
// precondition (double resolution, double settlement, staking on a closed
// market). These are client errors that must not be blindly retried.
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrMarketExists,
		ErrMarketNotActive,
		ErrAlreadyResolved,
		ErrAlreadySettled,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true for bad-input errors rejected before any
// transaction starts.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrInvalidStake,
		ErrInvalidStatus,
		ErrInvalidOutcome,
		ErrInvalidAmount,
		ErrInvalidResult,
		ErrMissingSource,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
