package ledger

import (
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/shopspring/decimal"
)

// Valuation summarises the stock on hand in AUD.
type Valuation struct {
	TotalAUD      decimal.Decimal `json:"total_aud"`
	ItemCount     int             `json:"item_count"`
	UnitsInStock  int             `json:"units_in_stock"`
	LowStockCount int             `json:"low_stock_count"`
	ExchangeRate  float64         `json:"exchange_rate"`
}

// Valuation prices every item at its current price. CNY prices are
// converted by dividing by the exchange rate.
func (l *Ledger) Valuation() Valuation {
	v := Valuation{
		TotalAUD:     decimal.Zero,
		ExchangeRate: l.data.ExchangeRate,
	}
	rate := decimal.NewFromFloat(l.data.ExchangeRate)
	for _, item := range l.data.Inventory {
		v.ItemCount++
		v.UnitsInStock += item.StockQuantity
		if item.LowStock() {
			v.LowStockCount++
		}
		v.TotalAUD = v.TotalAUD.Add(PriceAUD(item, rate).Mul(decimal.NewFromInt(int64(item.StockQuantity))))
	}
	v.TotalAUD = v.TotalAUD.Round(2)
	return v
}

// PriceAUD converts an item's current price into AUD.
func PriceAUD(item schema.InventoryItem, rate decimal.Decimal) decimal.Decimal {
	price := decimal.NewFromFloat(item.CurrentPrice)
	if item.Currency == schema.CurrencyCNY && rate.IsPositive() {
		return price.DivRound(rate, 4)
	}
	return price
}
