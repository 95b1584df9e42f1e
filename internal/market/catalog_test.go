package market

import "testing"

func TestCatalogRoundTrip(t *testing.T) {
	c := DefaultCatalog()

	venue := c.ToVenue("TCS.NS")
	if venue != "NSE:TCS-EQ" {
		t.Errorf("ToVenue(TCS.NS) = %q, want NSE:TCS-EQ", venue)
	}

	internal, ok := c.ToInternal("NSE:TCS-EQ")
	if !ok || internal != "TCS.NS" {
		t.Errorf("ToInternal(NSE:TCS-EQ) = %q, %v; want TCS.NS, true", internal, ok)
	}
}

func TestCatalogIdentityFallback(t *testing.T) {
	c := NewSymbolCatalog(map[string]string{"A.NS": "NSE:A-EQ"})

	if got := c.ToVenue("UNMAPPED.NS"); got != "UNMAPPED.NS" {
		t.Errorf("ToVenue fallback = %q, want identity", got)
	}
	if _, ok := c.ToInternal("NSE:UNMAPPED-EQ"); ok {
		t.Error("ToInternal should miss for unmapped wire symbol")
	}
}

func TestCatalogBatch(t *testing.T) {
	c := DefaultCatalog()
	got := c.VenueSymbols([]string{"INFY.NS", "SBIN.NS"})
	want := []string{"NSE:INFY-EQ", "NSE:SBIN-EQ"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("VenueSymbols[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
