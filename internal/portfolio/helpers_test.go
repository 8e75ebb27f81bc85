package portfolio

import "options-cockpit/internal/models"

// legSeed is a generator-friendly description of a leg.
type legSeed struct {
	IsStock bool
	IsPut   bool
	IsShort bool
	Price   float64
	Premium float64
	Qty     int
	Size    int
}

func (s legSeed) leg() models.Leg {
	side := models.Long
	if s.IsShort {
		side = models.Short
	}
	if s.IsStock {
		return models.StockLeg{Side: side, Shares: s.Qty * s.Size, EntryPrice: s.Price}
	}
	typ := models.Call
	if s.IsPut {
		typ = models.Put
	}
	return models.OptionLeg{Type: typ, Side: side, Strike: s.Price, Premium: s.Premium, Qty: s.Qty, ContractSize: s.Size}
}
