package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCloneSharesNothing(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := NewAppData([]Product{{ID: "P1", Name: "Tea", DefaultPrice: 10, Currency: CurrencyAUD}})
	data.Transactions = append(data.Transactions, Transaction{ID: "t1", ProductID: "P1", Quantity: 1})

	g := NewGlobalState(CloudConfig{Endpoint: "http://x", LastSyncedAt: &at})
	g.Accounts["alice"] = Account{Username: "alice"}
	g.UserStores["alice"] = UserStore{
		Current: data,
		History: []DataVersion{{ID: "v", VersionTag: "v1.0.1", Data: data.Clone()}},
	}

	c := g.Clone()
	assert.Equal(t, g, c)

	item := c.UserStores["alice"].Current.Inventory["P1"]
	item.StockQuantity = 99
	c.UserStores["alice"].Current.Inventory["P1"] = item
	c.UserStores["alice"].Current.Transactions[0].Quantity = 7
	c.UserStores["alice"].History[0].Data.Inventory["P1"] = item
	*c.CloudConfig.LastSyncedAt = at.Add(time.Hour)

	assert.Equal(t, 0, g.UserStores["alice"].Current.Inventory["P1"].StockQuantity)
	assert.Equal(t, 1, g.UserStores["alice"].Current.Transactions[0].Quantity)
	assert.Equal(t, 0, g.UserStores["alice"].History[0].Data.Inventory["P1"].StockQuantity)
	assert.Equal(t, at, *g.CloudConfig.LastSyncedAt)
}

func TestCloneKeepsNil(t *testing.T) {
	var d AppData
	c := d.Clone()
	assert.Nil(t, c.Inventory)
	assert.Nil(t, c.Transactions)
}

func TestEnums(t *testing.T) {
	assert.True(t, InboundMethod("采购").IsValid())
	assert.False(t, InboundMethod("stolen").IsValid())
	assert.True(t, OutboundPurpose("自用").IsValid())
	assert.False(t, OutboundPurpose("").IsValid())
	assert.Len(t, OutboundPurposes(), 5)

	_, err := ParseCurrency("USD")
	assert.Error(t, err)
	c, err := ParseCurrency("CNY")
	assert.NoError(t, err)
	assert.Equal(t, CurrencyCNY, c)
}
