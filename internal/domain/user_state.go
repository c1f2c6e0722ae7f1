package domain

// UserState tracks per-user trade sequencing. One record per user, at the
// derived "user-state" address, so at most one state can exist per identity.
type UserState struct {
	Owner Identity // user identity this state belongs to

	// TradeCount is a monotonic counter: it starts at 0 and is incremented
	// by exactly 1 on each successful trade log. The value read before the
	// increment is the sequence number of the logged trade.
	TradeCount uint64
}
