package asset

// Asset describes the native currency of a chain. Native currencies are the
// only assets the wallet session reports (signer balance), so identity is the
// chain id plus symbol.
type Asset struct {
	chainID  uint64
	symbol   string
	name     string
	decimals uint8
}

// NewNative creates the native currency descriptor for chainID.
func NewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}

	return &Asset{
		chainID:  chainID,
		symbol:   symbol,
		name:     name,
		decimals: decimals,
	}
}

// ChainID returns the chain the currency lives on.
func (a *Asset) ChainID() uint64 {
	return a.chainID
}

// Symbol returns the ticker symbol (e.g., "AVAX", "ETH").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the human-readable name (e.g., "Avalanche").
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// String returns a human-readable representation.
func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two assets by chain and symbol.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.chainID == other.chainID && a.symbol == other.symbol
}
