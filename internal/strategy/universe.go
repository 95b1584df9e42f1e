package strategy

import "gapwatch/internal/models"

// universe maps every tradable symbol to its sector. The set mirrors the
// venue catalog; symbols outside this map are never evaluated.
var universe = map[string]models.Sector{
	"NESTLEIND.NS":  models.SectorFMCG,
	"COLPAL.NS":     models.SectorFMCG,
	"TATACONSUM.NS": models.SectorFMCG,
	"HINDUNILVR.NS": models.SectorFMCG,
	"ITC.NS":        models.SectorFMCG,
	"BRITANNIA.NS":  models.SectorFMCG,
	"DABUR.NS":      models.SectorFMCG,
	"MARICO.NS":     models.SectorFMCG,
	"TCS.NS":        models.SectorIT,
	"INFY.NS":       models.SectorIT,
	"WIPRO.NS":      models.SectorIT,
	"HCLTECH.NS":    models.SectorIT,
	"TECHM.NS":      models.SectorIT,
	"HDFCBANK.NS":   models.SectorBanking,
	"ICICIBANK.NS":  models.SectorBanking,
	"SBIN.NS":       models.SectorBanking,
	"AXISBANK.NS":   models.SectorBanking,
	"KOTAKBANK.NS":  models.SectorBanking,
	"INDUSINDBK.NS": models.SectorBanking,
	"MARUTI.NS":     models.SectorAuto,
	"TATAMOTORS.NS": models.SectorAuto,
	"BAJAJ-AUTO.NS": models.SectorAuto,
	"M&M.NS":        models.SectorAuto,
	"HEROMOTOCO.NS": models.SectorAuto,
	"EICHERMOT.NS":  models.SectorAuto,
}

// sectorWeights express how receptive each sector historically is to the
// gap-fade. Fed into the confidence composite at a 10% weight.
var sectorWeights = map[models.Sector]float64{
	models.SectorFMCG:    1.0,
	models.SectorIT:      0.9,
	models.SectorPharma:  0.7,
	models.SectorBanking: 0.6,
	models.SectorMetals:  0.5,
	models.SectorRealty:  0.4,
	models.SectorAuto:    0.3,
}

// referenceBasket is the market-breadth proxy: large caps whose collective
// strength gates new entries.
var referenceBasket = []string{
	"RELIANCE.NS",
	"TCS.NS",
	"HDFCBANK.NS",
	"INFY.NS",
	"ICICIBANK.NS",
	"HINDUNILVR.NS",
	"ITC.NS",
	"SBIN.NS",
}

func sectorWeight(s models.Sector) float64 {
	if w, ok := sectorWeights[s]; ok {
		return w
	}
	return 0.5
}

// watchSymbols is the full subscription set: universe plus any basket symbol
// not already in it.
func watchSymbols() []string {
	seen := make(map[string]struct{}, len(universe)+len(referenceBasket))
	out := make([]string, 0, len(universe)+len(referenceBasket))
	for sym := range universe {
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	for _, sym := range referenceBasket {
		if _, ok := seen[sym]; !ok {
			out = append(out, sym)
		}
	}
	return out
}
