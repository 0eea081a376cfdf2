package schema

// DateLayout is the calendar-date format used by transactions.
const DateLayout = "2006-01-02"

// DefaultExchangeRate is the CNY per AUD rate a new account starts with.
const DefaultExchangeRate = 4.6

// Product is an immutable catalog definition.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	DefaultPrice float64  `json:"default_price"`
	Currency     Currency `json:"currency"`
}

// InventoryItem is a Product plus the fields an account mutates.
type InventoryItem struct {
	Product
	CurrentPrice  float64 `json:"current_price"`
	StockQuantity int     `json:"stock_quantity"`
	Threshold     int     `json:"threshold"`
}

// LowStock reports whether the item is at or below its alert line.
func (i InventoryItem) LowStock() bool {
	return i.StockQuantity <= i.Threshold
}

// Transaction records one inventory movement. Transactions are never edited.
type Transaction struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Date        string          `json:"date"`
	Quantity    int             `json:"quantity"`
	Price       float64         `json:"price"`
	Currency    Currency        `json:"currency"`
	Type        TransactionType `json:"type"`
	Detail      string          `json:"detail"`
	Note        string          `json:"note,omitempty"`
}

// AppData is the live ledger of one account.
// Transactions are ordered newest first.
type AppData struct {
	Inventory    map[string]InventoryItem `json:"inventory"`
	Transactions []Transaction            `json:"transactions"`
	ExchangeRate float64                  `json:"exchange_rate"`
}

// NewAppData seeds a ledger from the catalog with zero stock and a threshold of one.
func NewAppData(catalog []Product) AppData {
	inv := make(map[string]InventoryItem, len(catalog))
	for _, p := range catalog {
		inv[p.ID] = InventoryItem{
			Product:       p,
			CurrentPrice:  p.DefaultPrice,
			StockQuantity: 0,
			Threshold:     1,
		}
	}
	return AppData{
		Inventory:    inv,
		Transactions: []Transaction{},
		ExchangeRate: DefaultExchangeRate,
	}
}

// Clone returns a deep copy of the ledger. Nil collections stay nil.
func (d AppData) Clone() AppData {
	out := AppData{ExchangeRate: d.ExchangeRate}
	if d.Inventory != nil {
		out.Inventory = make(map[string]InventoryItem, len(d.Inventory))
		for k, v := range d.Inventory {
			out.Inventory[k] = v
		}
	}
	if d.Transactions != nil {
		out.Transactions = make([]Transaction, len(d.Transactions))
		copy(out.Transactions, d.Transactions)
	}
	return out
}
