package game

import "errors"

var (
	ErrInvalidStake      = errors.New("invalid stake")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrResolverFault marks a broken internal table or invariant. It is a
	// programming error, never a user-facing condition.
	ErrResolverFault = errors.New("resolver fault")

	ErrRoundNotFound = errors.New("round not found")
	ErrRoundFinished = errors.New("round already finished")
)

// IsUserError reports whether err is caused by the request rather than by us.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidStake) ||
		errors.Is(err, ErrInvalidParameters) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrRoundNotFound) ||
		errors.Is(err, ErrRoundFinished)
}
