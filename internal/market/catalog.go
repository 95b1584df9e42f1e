package market

// SymbolCatalog translates between internal instrument symbols and the wire
// symbols the venue expects. The table is fixed at construction; the catalog
// owns no mutable state and is safe for concurrent use.
type SymbolCatalog struct {
	toVenue    map[string]string
	toInternal map[string]string
}

// NewSymbolCatalog builds a catalog from an internal->venue mapping and
// derives the reverse direction.
func NewSymbolCatalog(mapping map[string]string) *SymbolCatalog {
	c := &SymbolCatalog{
		toVenue:    make(map[string]string, len(mapping)),
		toInternal: make(map[string]string, len(mapping)),
	}
	for internal, venue := range mapping {
		c.toVenue[internal] = venue
		c.toInternal[venue] = internal
	}
	return c
}

// ToVenue returns the wire symbol for an internal symbol. Unmapped symbols
// pass through unchanged so an incomplete table degrades to identity.
func (c *SymbolCatalog) ToVenue(symbol string) string {
	if venue, ok := c.toVenue[symbol]; ok {
		return venue
	}
	return symbol
}

// ToInternal maps a wire symbol back. Inbound data for unmapped wire symbols
// cannot be attributed and is dropped by callers, hence the ok result.
func (c *SymbolCatalog) ToInternal(venueSymbol string) (string, bool) {
	internal, ok := c.toInternal[venueSymbol]
	return internal, ok
}

// VenueSymbols translates a batch outbound.
func (c *SymbolCatalog) VenueSymbols(symbols []string) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = c.ToVenue(s)
	}
	return out
}

// DefaultCatalog covers the NSE universe the strategy trades.
func DefaultCatalog() *SymbolCatalog {
	return NewSymbolCatalog(map[string]string{
		"NESTLEIND.NS":  "NSE:NESTLEIND-EQ",
		"COLPAL.NS":     "NSE:COLPAL-EQ",
		"TATACONSUM.NS": "NSE:TATACONSUM-EQ",
		"HINDUNILVR.NS": "NSE:HINDUNILVR-EQ",
		"ITC.NS":        "NSE:ITC-EQ",
		"BRITANNIA.NS":  "NSE:BRITANNIA-EQ",
		"DABUR.NS":      "NSE:DABUR-EQ",
		"MARICO.NS":     "NSE:MARICO-EQ",
		"TCS.NS":        "NSE:TCS-EQ",
		"INFY.NS":       "NSE:INFY-EQ",
		"WIPRO.NS":      "NSE:WIPRO-EQ",
		"HCLTECH.NS":    "NSE:HCLTECH-EQ",
		"TECHM.NS":      "NSE:TECHM-EQ",
		"HDFCBANK.NS":   "NSE:HDFCBANK-EQ",
		"ICICIBANK.NS":  "NSE:ICICIBANK-EQ",
		"SBIN.NS":       "NSE:SBIN-EQ",
		"AXISBANK.NS":   "NSE:AXISBANK-EQ",
		"KOTAKBANK.NS":  "NSE:KOTAKBANK-EQ",
		"INDUSINDBK.NS": "NSE:INDUSINDBK-EQ",
		"MARUTI.NS":     "NSE:MARUTI-EQ",
		"TATAMOTORS.NS": "NSE:TATAMOTORS-EQ",
		"BAJAJ-AUTO.NS": "NSE:BAJAJ-AUTO-EQ",
		"M&M.NS":        "NSE:M&M-EQ",
		"HEROMOTOCO.NS": "NSE:HEROMOTOCO-EQ",
		"EICHERMOT.NS":  "NSE:EICHERMOT-EQ",
		"RELIANCE.NS":   "NSE:RELIANCE-EQ",
	})
}
