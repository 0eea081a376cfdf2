package schema

import "fmt"

// Currency is the denomination of a product price.
type Currency string

const (
	CurrencyAUD Currency = "AUD"
	CurrencyCNY Currency = "CNY"
)

var validCurrencies = []Currency{CurrencyAUD, CurrencyCNY}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts a raw value into a Currency.
func ParseCurrency(value string) (Currency, error) {
	c := Currency(value)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}

// TransactionType is the direction of a movement.
type TransactionType string

const (
	TransactionInbound  TransactionType = "inbound"
	TransactionOutbound TransactionType = "outbound"
)

// IsValid reports whether the type is recognized.
func (t TransactionType) IsValid() bool {
	return t == TransactionInbound || t == TransactionOutbound
}

// InboundMethod tags how stock arrived.
type InboundMethod string

const (
	InboundPurchase    InboundMethod = "采购"
	InboundAutoOrder   InboundMethod = "自动订货"
	InboundSingleOrder InboundMethod = "单次订货"
	InboundGift        InboundMethod = "赠品"
	InboundOther       InboundMethod = "其他"
)

var validInboundMethods = []InboundMethod{
	InboundPurchase,
	InboundAutoOrder,
	InboundSingleOrder,
	InboundGift,
	InboundOther,
}

// IsValid reports whether the method is recognized.
func (m InboundMethod) IsValid() bool {
	for _, candidate := range validInboundMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// InboundMethods lists the accepted inbound tags.
func InboundMethods() []InboundMethod {
	return append([]InboundMethod(nil), validInboundMethods...)
}

// OutboundPurpose tags why stock left.
type OutboundPurpose string

const (
	OutboundSelf   OutboundPurpose = "自用"
	OutboundKids   OutboundPurpose = "孩子用"
	OutboundLoaned OutboundPurpose = "借出"
	OutboundSold   OutboundPurpose = "售出"
	OutboundOther  OutboundPurpose = "其他"
)

var validOutboundPurposes = []OutboundPurpose{
	OutboundSelf,
	OutboundKids,
	OutboundLoaned,
	OutboundSold,
	OutboundOther,
}

// IsValid reports whether the purpose is recognized.
func (p OutboundPurpose) IsValid() bool {
	for _, candidate := range validOutboundPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// OutboundPurposes lists the accepted outbound tags.
func OutboundPurposes() []OutboundPurpose {
	return append([]OutboundPurpose(nil), validOutboundPurposes...)
}
