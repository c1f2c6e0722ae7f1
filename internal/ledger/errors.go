package ledger

import "errors"

// Ledger operation errors. Every failure is reported synchronously with one
// of these distinguishable kinds; validation is front-loaded so no failure
// leaves partial state behind.
var (
	// ErrAlreadyInitialized is returned when a config or user state record
	// already exists at its derived address.
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrConfigNotInitialized is returned by LogTrade before the config
	// record has been created.
	ErrConfigNotInitialized = errors.New("config not initialized")

	// ErrUserNotInitialized is returned by LogTrade when the user has no
	// state record yet.
	ErrUserNotInitialized = errors.New("user not initialized")

	// ErrUnauthorized is returned when the signer is neither the user nor
	// the configured admin.
	ErrUnauthorized = errors.New("signer not authorized for user")

	// ErrInvalidAmount is returned when the trade amount is zero.
	ErrInvalidAmount = errors.New("amount must be nonzero")

	// ErrTokenNotWhitelisted is returned when token_in or token_out is not
	// in the config whitelist.
	ErrTokenNotWhitelisted = errors.New("token not whitelisted")

	// ErrRecordAlreadyExists is returned when the derived trade-record
	// address is already occupied: a concurrent log for the same sequence
	// won the race. Retry after re-reading the trade count.
	ErrRecordAlreadyExists = errors.New("trade record already exists at derived address")

	// ErrConcurrentConflict is returned when the user's trade count moved
	// between the read and the guarded increment. Retry after re-reading
	// the trade count.
	ErrConcurrentConflict = errors.New("concurrent update conflict on trade count")

	// ErrWhitelistTooLarge is returned when a config whitelist exceeds
	// domain.MaxWhitelist entries.
	ErrWhitelistTooLarge = errors.New("whitelist exceeds maximum size")
)
