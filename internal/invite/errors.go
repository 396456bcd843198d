package invite

import "errors"

var (
	// ErrInvitationNotFound is returned when no invitation matches the presented token.
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationExpired is returned when the invitation's expiry has passed.
	ErrInvitationExpired = errors.New("invitation expired")

	// ErrInvitationAlreadyUsed is returned when the invitation was already redeemed.
	// A concurrent redemption race resolves to exactly one winner; every loser
	// observes this error.
	ErrInvitationAlreadyUsed = errors.New("invitation already used")

	// ErrEmailEmpty is returned when issuing an invitation without a recipient.
	ErrEmailEmpty = errors.New("invitation email can not be empty")
)
