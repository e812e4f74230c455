// services/errors.go
package services

import "errors"

// Error taxonomy for the room allocation / settlement engine. Handlers
// translate these to HTTP statuses; everything else surfaces as a 500.
var (
	// ErrConfigNotFound: tournament block id does not resolve to an active block.
	ErrConfigNotFound = errors.New("tournament block not found or not active")

	// ErrInsufficientFunds: entry-fee debit was rejected by the wallet service.
	ErrInsufficientFunds = errors.New("insufficient funds for entry fee")

	// ErrUserBlocked: wallet service refuses to transact for this user.
	ErrUserBlocked = errors.New("user wallet is blocked")

	// ErrRoomFull: lost the seat race on the room the allocator picked.
	// Retryable — the caller must re-run the whole allocation, not retry
	// the same room id.
	ErrRoomFull = errors.New("room full, retry")

	// ErrDuplicateSeat: (user, room) unique constraint hit. The pre-check
	// should make this unreachable; hitting it indicates a logic bug.
	ErrDuplicateSeat = errors.New("user already seated in this room")

	// ErrSeatNotFound: score submitted for a room the user never joined.
	ErrSeatNotFound = errors.New("user not found in this room")

	// ErrRoomNotFound: unknown room id.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNoParticipants: settlement asked for a room with no seats taken.
	ErrNoParticipants = errors.New("room has no participants to settle")

	// ErrLedgerUnavailable: wallet service unreachable or returned 5xx.
	ErrLedgerUnavailable = errors.New("wallet service unavailable")
)
