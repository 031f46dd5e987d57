package policy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	id "custos/pkg/domain"
)

// legacyPolicy is the flat document shape written by early guardian-app
// builds: one boolean and one limit per category plus compatibility flags
// that duplicated the allow-lists. It exists only for load-time migration;
// nothing writes this shape anymore.
type legacyPolicy struct {
	Version int `json:"version"`

	TradingEnabled   bool `json:"trading_enabled"`
	NFTEnabled       bool `json:"nft_enabled"`
	GiftCardsEnabled bool `json:"gift_cards_enabled"`
	TransfersEnabled bool `json:"transfers_enabled"`

	TradingLimit  *decimal.Decimal `json:"trading_limit"`
	NFTLimit      *decimal.Decimal `json:"nft_limit"`
	GiftCardLimit *decimal.Decimal `json:"gift_card_limit"`
	TransferLimit *decimal.Decimal `json:"transfer_limit"`

	TradingDailyLimit  *decimal.Decimal `json:"trading_daily_limit"`
	NFTDailyLimit      *decimal.Decimal `json:"nft_daily_limit"`
	GiftCardDailyLimit *decimal.Decimal `json:"gift_card_daily_limit"`
	TransferDailyLimit *decimal.Decimal `json:"transfer_daily_limit"`

	AllowedTokens      []string          `json:"allowed_tokens"`
	AllowedCollections []string          `json:"allowed_collections"`
	AllowedRecipients  []string          `json:"allowed_recipients"`
	RecipientNicknames map[string]string `json:"recipient_nicknames"`

	// Compatibility flags that shadowed the allow-lists. Migration folds
	// them in rather than keeping both live.
	AnyTokenAllowed       bool `json:"any_token_allowed"`
	ParentTransferAllowed bool `json:"parent_transfer_allowed"`
}

// versionProbe peeks at the stored version without committing to a shape.
type versionProbe struct {
	Version int `json:"version"`
}

// Decode unmarshals a stored policy payload, migrating legacy documents into
// the current versioned shape.
func Decode(dependentID id.DependentID, payload []byte, updatedAt time.Time) (Policy, error) {
	var probe versionProbe
	if err := json.Unmarshal(payload, &probe); err != nil {
		return Policy{}, fmt.Errorf("probe policy version: %w", err)
	}
	if probe.Version < CurrentVersion {
		var legacy legacyPolicy
		if err := json.Unmarshal(payload, &legacy); err != nil {
			return Policy{}, fmt.Errorf("decode legacy policy: %w", err)
		}
		return migrateLegacy(dependentID, legacy, updatedAt), nil
	}
	var p Policy
	if err := json.Unmarshal(payload, &p); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	p.DependentID = dependentID
	p.UpdatedAt = updatedAt
	return p, nil
}

// migrateLegacy converts a flat legacy document into the versioned shape.
// The shadow flags fold into their live counterparts: any_token_allowed
// clears the token allow-list, parent_transfer_allowed becomes
// AllowGuardianWallet.
func migrateLegacy(dependentID id.DependentID, legacy legacyPolicy, updatedAt time.Time) Policy {
	tokens := legacy.AllowedTokens
	if legacy.AnyTokenAllowed {
		tokens = nil
	}
	nicknames := legacy.RecipientNicknames
	if nicknames == nil {
		nicknames = map[string]string{}
	}
	return Policy{
		Version:     CurrentVersion,
		DependentID: dependentID,
		Categories: map[id.Category]CategoryRule{
			id.CategoryTrading:  {Enabled: legacy.TradingEnabled, PerTxCap: legacy.TradingLimit, DailyCap: legacy.TradingDailyLimit},
			id.CategoryNFT:      {Enabled: legacy.NFTEnabled, PerTxCap: legacy.NFTLimit, DailyCap: legacy.NFTDailyLimit},
			id.CategoryGiftCard: {Enabled: legacy.GiftCardsEnabled, PerTxCap: legacy.GiftCardLimit, DailyCap: legacy.GiftCardDailyLimit},
			id.CategoryTransfer: {Enabled: legacy.TransfersEnabled, PerTxCap: legacy.TransferLimit, DailyCap: legacy.TransferDailyLimit},
		},
		AllowedTokens:       tokens,
		AllowedCollections:  legacy.AllowedCollections,
		AllowedRecipients:   legacy.AllowedRecipients,
		RecipientNicknames:  nicknames,
		AllowGuardianWallet: legacy.ParentTransferAllowed,
		UpdatedAt:           updatedAt,
	}
}
