package domain

// MaxWhitelist is the maximum number of asset identifiers a config may
// whitelist. Matches the account size budget of the on-chain layout.
const MaxWhitelist = 10

// Config is the global deployment configuration. It exists at most once,
// at the derived "config" address, and is write-once: no update or
// admin-rotation operation is defined.
type Config struct {
	Admin           Identity   // account authorized to set the whitelist and log for any user
	Whitelist       []Identity // asset identifiers eligible as token_in/token_out
	ProtocolVersion uint16     // set at creation, interpreted by readers for layout migrations
	CreatedAt       int64      // Unix timestamp in milliseconds
}

// Whitelisted reports whether the given asset is in the whitelist.
func (c *Config) Whitelisted(asset Identity) bool {
	for _, a := range c.Whitelist {
		if a == asset {
			return true
		}
	}
	return false
}
