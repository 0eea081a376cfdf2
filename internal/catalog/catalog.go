// Package catalog supplies the read-only product list used to seed new accounts.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/celerix-dev/celerix-pantry/pkg/schema"
)

var defaultProducts = []schema.Product{
	{ID: "0101", Name: "Essentials Multivitamin", Category: "Supplements", DefaultPrice: 89.95, Currency: schema.CurrencyAUD},
	{ID: "0102", Name: "Proflavanol C100", Category: "Supplements", DefaultPrice: 79.95, Currency: schema.CurrencyAUD},
	{ID: "0103", Name: "BiOmega Fish Oil", Category: "Supplements", DefaultPrice: 54.95, Currency: schema.CurrencyAUD},
	{ID: "0104", Name: "Probiotic Sachets", Category: "Supplements", DefaultPrice: 49.95, Currency: schema.CurrencyAUD},
	{ID: "0201", Name: "Nutrimeal Shake", Category: "Nutrition", DefaultPrice: 64.95, Currency: schema.CurrencyAUD},
	{ID: "0202", Name: "Fibergy Plus", Category: "Nutrition", DefaultPrice: 39.95, Currency: schema.CurrencyAUD},
	{ID: "0301", Name: "Celavive Cleanser", Category: "Skincare", DefaultPrice: 298, Currency: schema.CurrencyCNY},
	{ID: "0302", Name: "Celavive Toner", Category: "Skincare", DefaultPrice: 318, Currency: schema.CurrencyCNY},
}

// Default returns a copy of the built-in catalog.
func Default() []schema.Product {
	return append([]schema.Product(nil), defaultProducts...)
}

// LoadFile reads a JSON array of products. An empty path returns Default.
func LoadFile(path string) ([]schema.Product, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var products []schema.Product
	if err := json.Unmarshal(content, &products); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := Validate(products); err != nil {
		return nil, err
	}
	return products, nil
}

// Validate checks ids are present and unique, prices are not negative and currencies are known.
func Validate(products []schema.Product) error {
	seen := make(map[string]bool, len(products))
	for i, p := range products {
		if p.ID == "" {
			return fmt.Errorf("catalog entry %d has no id", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("catalog id %s is duplicated", p.ID)
		}
		seen[p.ID] = true
		if p.DefaultPrice < 0 {
			return fmt.Errorf("catalog id %s has a negative price", p.ID)
		}
		if !p.Currency.IsValid() {
			return fmt.Errorf("catalog id %s has unknown currency %q", p.ID, p.Currency)
		}
	}
	return nil
}
