package domain

import dErrors "custos/pkg/domain-errors"

// Category classifies a spend for policy checks and daily caps. Each category
// carries its own enable flag and caps in the dependent's policy.
type Category string

const (
	CategoryTrading  Category = "trading"
	CategoryNFT      Category = "nft"
	CategoryGiftCard Category = "gift_card"
	CategoryTransfer Category = "transfer"
)

// Categories lists every valid category in a stable order, used for summary
// aggregation and policy defaults.
var Categories = []Category{CategoryTrading, CategoryNFT, CategoryGiftCard, CategoryTransfer}

var validCategories = map[Category]bool{
	CategoryTrading:  true,
	CategoryNFT:      true,
	CategoryGiftCard: true,
	CategoryTransfer: true,
}

// ParseCategory validates and returns a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !validCategories[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown spending category: "+s)
	}
	return c, nil
}

func (c Category) String() string { return string(c) }
