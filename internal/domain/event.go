package domain

// TradeEvent is the notification payload published on each successful trade
// log, for off-chain indexers. It mirrors the TradeRecord fields.
type TradeEvent struct {
	TradeID     TradeID  `json:"trade_id"`
	User        Identity `json:"user"`
	Sequence    uint64   `json:"sequence"`
	TradeType   uint8    `json:"trade_type"`
	TokenIn     Identity `json:"token_in"`
	TokenOut    Identity `json:"token_out"`
	Amount      uint64   `json:"amount"`
	Price       uint64   `json:"price"`
	SlippageBps uint16   `json:"slippage_bps"`
	Tag         Tag      `json:"tag"`
	Timestamp   int64    `json:"timestamp"`
}
