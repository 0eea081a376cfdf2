package engine

import (
	"context"

	"github.com/celerix-dev/celerix-pantry/internal/history"
	"github.com/celerix-dev/celerix-pantry/internal/ledger"
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
)

// --- Ledger ---

func (s *Store) RecordInbound(ctx context.Context, in ledger.Inbound) (schema.Transaction, error) {
	var tx schema.Transaction
	err := s.mutate(ctx, "inbound", func(us *schema.UserStore) error {
		var err error
		tx, err = ledger.New(&us.Current).RecordInbound(in)
		return err
	})
	return tx, err
}

func (s *Store) RecordOutbound(ctx context.Context, out ledger.Outbound) (schema.Transaction, error) {
	var tx schema.Transaction
	err := s.mutate(ctx, "outbound", func(us *schema.UserStore) error {
		var err error
		tx, err = ledger.New(&us.Current).RecordOutbound(out)
		return err
	})
	return tx, err
}

func (s *Store) SetThreshold(ctx context.Context, productID string, value int) error {
	return s.mutate(ctx, "threshold", func(us *schema.UserStore) error {
		return ledger.New(&us.Current).SetThreshold(productID, value)
	})
}

func (s *Store) RemoveProduct(ctx context.Context, productID string) error {
	return s.mutate(ctx, "remove_product", func(us *schema.UserStore) error {
		return ledger.New(&us.Current).RemoveProduct(productID)
	})
}

func (s *Store) SetExchangeRate(ctx context.Context, rate float64) error {
	return s.mutate(ctx, "exchange_rate", func(us *schema.UserStore) error {
		return ledger.New(&us.Current).SetExchangeRate(rate)
	})
}

// AppData returns a copy of the active account's live ledger.
func (s *Store) AppData() (schema.AppData, error) {
	var data schema.AppData
	err := s.view(func(_ string, us schema.UserStore) {
		data = us.Current
	})
	return data, err
}

// Inventory returns the active account's items ordered by product id.
func (s *Store) Inventory() ([]schema.InventoryItem, error) {
	var items []schema.InventoryItem
	err := s.view(func(_ string, us schema.UserStore) {
		items = ledger.New(&us.Current).Items()
	})
	return items, err
}

// LowStock returns the items at or below their threshold.
func (s *Store) LowStock() ([]schema.InventoryItem, error) {
	var items []schema.InventoryItem
	err := s.view(func(_ string, us schema.UserStore) {
		items = ledger.New(&us.Current).LowStock()
	})
	return items, err
}

// Valuation prices the active account's stock in AUD.
func (s *Store) Valuation() (ledger.Valuation, error) {
	var v ledger.Valuation
	err := s.view(func(_ string, us schema.UserStore) {
		v = ledger.New(&us.Current).Valuation()
	})
	return v, err
}

// --- Snapshot history ---

// Capture records a snapshot of the active account stamped with the running build.
func (s *Store) Capture(ctx context.Context, description string) (schema.DataVersion, error) {
	var v schema.DataVersion
	err := s.mutate(ctx, "capture", func(us *schema.UserStore) error {
		v = history.New(us).Capture(description, s.build, s.now())
		return nil
	})
	return v, err
}

// Restore replaces the live ledger with the snapshot identified by ref (id or tag).
// Snapshots taken by other builds are restored as-is.
func (s *Store) Restore(ctx context.Context, ref string) (schema.AppData, error) {
	var data schema.AppData
	err := s.mutate(ctx, "restore", func(us *schema.UserStore) error {
		h := history.New(us)
		v, err := h.Find(ref)
		if err != nil {
			return err
		}
		if v.CodeVersion != s.build {
			s.log.Warn(ctx, "restoring a snapshot from build "+v.CodeVersion, nil)
		}
		data = h.Restore(v)
		return nil
	})
	return data, err
}

// History lists the active account's snapshots, newest first.
func (s *Store) History() ([]schema.DataVersion, error) {
	var list []schema.DataVersion
	err := s.view(func(_ string, us schema.UserStore) {
		list = history.New(&us).List()
	})
	return list, err
}
