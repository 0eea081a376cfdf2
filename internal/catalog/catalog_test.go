package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValidAndCopied(t *testing.T) {
	products := Default()
	require.NoError(t, Validate(products))

	products[0].Name = "changed"
	assert.NotEqual(t, "changed", Default()[0].Name)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"P1","name":"Tea","category":"Pantry","default_price":5,"currency":"CNY"}]`), 0644))

	products, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, schema.CurrencyCNY, products[0].Currency)

	defaults, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), defaults)
}

func TestValidateRejects(t *testing.T) {
	assert.Error(t, Validate([]schema.Product{{ID: "", Currency: schema.CurrencyAUD}}))
	assert.Error(t, Validate([]schema.Product{{ID: "a", Currency: schema.CurrencyAUD}, {ID: "a", Currency: schema.CurrencyAUD}}))
	assert.Error(t, Validate([]schema.Product{{ID: "a", DefaultPrice: -1, Currency: schema.CurrencyAUD}}))
	assert.Error(t, Validate([]schema.Product{{ID: "a", Currency: "USD"}}))
}
