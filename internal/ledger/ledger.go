// Package ledger applies validated inventory mutations to one account's AppData.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a mutation names a product that is not in the inventory.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when an outbound movement exceeds the stock on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidPrice        = errors.New("price must not be negative")
	ErrInvalidThreshold    = errors.New("threshold must not be negative")
	ErrInvalidExchangeRate = errors.New("exchange rate must be greater than zero")
	ErrInvalidDate         = errors.New("date must be formatted as YYYY-MM-DD")
	// ErrUnknownTag is returned for an inbound method or outbound purpose outside the closed set.
	ErrUnknownTag = errors.New("unknown tag")
)

// Inbound describes a purchase or other arrival of stock.
type Inbound struct {
	ProductID string               `json:"product_id"`
	Quantity  int                  `json:"quantity"`
	UnitPrice float64              `json:"unit_price"`
	Method    schema.InboundMethod `json:"method"`
	Date      string               `json:"date"`
}

// Outbound describes consumption or other removal of stock.
type Outbound struct {
	ProductID string                 `json:"product_id"`
	Quantity  int                    `json:"quantity"`
	Purpose   schema.OutboundPurpose `json:"purpose"`
	Note      string                 `json:"note"`
	Date      string                 `json:"date"`
}

// Ledger is a thin mutator over an AppData owned by the caller.
// It is not safe for concurrent use.
type Ledger struct {
	data  *schema.AppData
	newID func() string
}

// New binds a Ledger to data.
func New(data *schema.AppData) *Ledger {
	if data.Inventory == nil {
		data.Inventory = make(map[string]schema.InventoryItem)
	}
	return &Ledger{data: data, newID: transactionID}
}

// transactionID returns a time-ordered UUIDv7, so ids sort in creation order.
func transactionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RecordInbound adds stock and overwrites the current price with the unit price paid.
func (l *Ledger) RecordInbound(in Inbound) (schema.Transaction, error) {
	if in.Quantity <= 0 {
		return schema.Transaction{}, ErrInvalidQuantity
	}
	if in.UnitPrice < 0 {
		return schema.Transaction{}, ErrInvalidPrice
	}
	if !in.Method.IsValid() {
		return schema.Transaction{}, fmt.Errorf("%w: inbound method %q", ErrUnknownTag, in.Method)
	}
	if err := validateDate(in.Date); err != nil {
		return schema.Transaction{}, err
	}
	item, ok := l.data.Inventory[in.ProductID]
	if !ok {
		return schema.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, in.ProductID)
	}

	tx := schema.Transaction{
		ID:          l.newID(),
		ProductID:   item.ID,
		ProductName: item.Name,
		Date:        in.Date,
		Quantity:    in.Quantity,
		Price:       in.UnitPrice,
		Currency:    item.Currency,
		Type:        schema.TransactionInbound,
		Detail:      string(in.Method),
	}

	item.CurrentPrice = in.UnitPrice
	item.StockQuantity += in.Quantity
	l.data.Inventory[in.ProductID] = item
	l.prepend(tx)
	return tx, nil
}

// RecordOutbound removes stock at the item's current price.
// Nothing changes when the stock on hand is smaller than the quantity.
func (l *Ledger) RecordOutbound(out Outbound) (schema.Transaction, error) {
	if out.Quantity <= 0 {
		return schema.Transaction{}, ErrInvalidQuantity
	}
	if !out.Purpose.IsValid() {
		return schema.Transaction{}, fmt.Errorf("%w: outbound purpose %q", ErrUnknownTag, out.Purpose)
	}
	if err := validateDate(out.Date); err != nil {
		return schema.Transaction{}, err
	}
	item, ok := l.data.Inventory[out.ProductID]
	if !ok {
		return schema.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, out.ProductID)
	}
	if item.StockQuantity < out.Quantity {
		return schema.Transaction{}, fmt.Errorf("%w: %s has %d, requested %d",
			ErrInsufficientStock, out.ProductID, item.StockQuantity, out.Quantity)
	}

	tx := schema.Transaction{
		ID:          l.newID(),
		ProductID:   item.ID,
		ProductName: item.Name,
		Date:        out.Date,
		Quantity:    out.Quantity,
		Price:       item.CurrentPrice,
		Currency:    item.Currency,
		Type:        schema.TransactionOutbound,
		Detail:      string(out.Purpose),
		Note:        out.Note,
	}

	item.StockQuantity -= out.Quantity
	l.data.Inventory[out.ProductID] = item
	l.prepend(tx)
	return tx, nil
}

// SetThreshold changes the low-stock alert line of a product.
func (l *Ledger) SetThreshold(productID string, value int) error {
	if value < 0 {
		return ErrInvalidThreshold
	}
	item, ok := l.data.Inventory[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	item.Threshold = value
	l.data.Inventory[productID] = item
	return nil
}

// RemoveProduct deletes an inventory entry. Transactions referencing it are kept.
func (l *Ledger) RemoveProduct(productID string) error {
	if _, ok := l.data.Inventory[productID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	delete(l.data.Inventory, productID)
	return nil
}

// SetExchangeRate sets the CNY per AUD rate used for display conversion.
func (l *Ledger) SetExchangeRate(value float64) error {
	if value <= 0 {
		return ErrInvalidExchangeRate
	}
	l.data.ExchangeRate = value
	return nil
}

// Items returns the inventory ordered by product id.
func (l *Ledger) Items() []schema.InventoryItem {
	items := make([]schema.InventoryItem, 0, len(l.data.Inventory))
	for _, item := range l.data.Inventory {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// LowStock returns the items at or below their threshold, ordered by product id.
func (l *Ledger) LowStock() []schema.InventoryItem {
	var low []schema.InventoryItem
	for _, item := range l.Items() {
		if item.LowStock() {
			low = append(low, item)
		}
	}
	return low
}

func (l *Ledger) prepend(tx schema.Transaction) {
	l.data.Transactions = append([]schema.Transaction{tx}, l.data.Transactions...)
}

func validateDate(value string) error {
	if _, err := time.Parse(schema.DateLayout, value); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return nil
}
