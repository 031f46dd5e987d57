package policy

import (
	"time"

	"github.com/shopspring/decimal"

	id "custos/pkg/domain"
)

// CurrentVersion marks the versioned policy shape. Version 0 payloads are
// legacy documents and are migrated at load time (see migrateLegacy); the two
// shapes never coexist in memory.
const CurrentVersion = 2

// CategoryRule holds the per-category switches and caps.
//
// Cap semantics: a nil cap and a cap <= 0 both mean "unlimited". The double
// sentinel is intentional business behavior carried over from the guardian
// app; both forms must be honored identically.
type CategoryRule struct {
	Enabled bool `json:"enabled"`
	// PerTxCap limits a single spend, in the family reference currency.
	PerTxCap *decimal.Decimal `json:"per_tx_cap,omitempty"`
	// DailyCap limits the rolling calendar-day total, in the family
	// reference currency.
	DailyCap *decimal.Decimal `json:"daily_cap,omitempty"`
}

// Policy is the guardian-defined spending policy for one dependent. At most
// one policy exists per dependent; a missing policy materializes as
// Default(), never as an error.
type Policy struct {
	Version     int                          `json:"version"`
	DependentID id.DependentID               `json:"dependent_id"`
	Categories  map[id.Category]CategoryRule `json:"categories"`

	// Allow-lists. Empty means "any".
	AllowedTokens      []string          `json:"allowed_tokens"`
	AllowedCollections []string          `json:"allowed_collections"`
	AllowedRecipients  []string          `json:"allowed_recipients"`
	RecipientNicknames map[string]string `json:"recipient_nicknames"`

	// AllowGuardianWallet permits transfers to the guardian's own wallet
	// even when the transfer category is disabled.
	AllowGuardianWallet bool `json:"allow_guardian_wallet"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Default returns the documented default policy: every category enabled, no
// caps, empty allow-lists (any token, any recipient).
func Default(dependentID id.DependentID) Policy {
	cats := make(map[id.Category]CategoryRule, len(id.Categories))
	for _, c := range id.Categories {
		cats[c] = CategoryRule{Enabled: true}
	}
	return Policy{
		Version:             CurrentVersion,
		DependentID:         dependentID,
		Categories:          cats,
		RecipientNicknames:  map[string]string{},
		AllowGuardianWallet: true,
	}
}

// Enabled reports whether the category is switched on. Categories absent from
// the map count as disabled; Default() populates all of them.
func (p Policy) Enabled(category id.Category) bool {
	return p.Categories[category].Enabled
}

// capUnlimited implements the double "unlimited" sentinel: nil or <= 0.
func capUnlimited(cap *decimal.Decimal) bool {
	return cap == nil || cap.LessThanOrEqual(decimal.Zero)
}

// WithinPerTxCap evaluates the per-transaction predicate:
// enabled AND (cap unlimited OR amount <= cap).
func (p Policy) WithinPerTxCap(category id.Category, amount decimal.Decimal) bool {
	rule, ok := p.Categories[category]
	if !ok || !rule.Enabled {
		return false
	}
	return capUnlimited(rule.PerTxCap) || amount.LessThanOrEqual(*rule.PerTxCap)
}

// DailyCap returns the category's daily cap, nil when unlimited.
func (p Policy) DailyCap(category id.Category) *decimal.Decimal {
	rule := p.Categories[category]
	if capUnlimited(rule.DailyCap) {
		return nil
	}
	return rule.DailyCap
}

// TokenAllowed reports whether the dependent may hold or spend the token.
// An empty allow-list means any token.
func (p Policy) TokenAllowed(token string) bool {
	return listAllows(p.AllowedTokens, token)
}

// CollectionAllowed reports whether the NFT collection is permitted.
func (p Policy) CollectionAllowed(collection string) bool {
	return listAllows(p.AllowedCollections, collection)
}

// RecipientAllowed reports whether a transfer recipient is permitted. The
// guardian wallet is always allowed when AllowGuardianWallet is set.
func (p Policy) RecipientAllowed(recipient, guardianWallet string) bool {
	if p.AllowGuardianWallet && recipient == guardianWallet {
		return true
	}
	return listAllows(p.AllowedRecipients, recipient)
}

func listAllows(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// Patch is a partial policy update; nil fields keep their prior values.
type Patch struct {
	Categories          map[id.Category]CategoryRulePatch `json:"categories,omitempty"`
	AllowedTokens       *[]string                         `json:"allowed_tokens,omitempty"`
	AllowedCollections  *[]string                         `json:"allowed_collections,omitempty"`
	AllowedRecipients   *[]string                         `json:"allowed_recipients,omitempty"`
	RecipientNicknames  map[string]string                 `json:"recipient_nicknames,omitempty"`
	AllowGuardianWallet *bool                             `json:"allow_guardian_wallet,omitempty"`
}

// CategoryRulePatch updates one category's rule; nil fields keep prior
// values. SetPerTxCap/SetDailyCap distinguish "leave alone" (false) from
// "overwrite, possibly with unlimited" (true).
type CategoryRulePatch struct {
	Enabled      *bool            `json:"enabled,omitempty"`
	PerTxCap     *decimal.Decimal `json:"per_tx_cap,omitempty"`
	SetPerTxCap  bool             `json:"set_per_tx_cap,omitempty"`
	DailyCap     *decimal.Decimal `json:"daily_cap,omitempty"`
	SetDailyCap  bool             `json:"set_daily_cap,omitempty"`
}

// Apply merges the patch into a copy of the policy.
func (p Policy) Apply(patch Patch, now time.Time) Policy {
	out := p
	out.Categories = make(map[id.Category]CategoryRule, len(p.Categories))
	for k, v := range p.Categories {
		out.Categories[k] = v
	}
	for cat, rp := range patch.Categories {
		rule := out.Categories[cat]
		if rp.Enabled != nil {
			rule.Enabled = *rp.Enabled
		}
		if rp.SetPerTxCap || rp.PerTxCap != nil {
			rule.PerTxCap = rp.PerTxCap
		}
		if rp.SetDailyCap || rp.DailyCap != nil {
			rule.DailyCap = rp.DailyCap
		}
		out.Categories[cat] = rule
	}
	if patch.AllowedTokens != nil {
		out.AllowedTokens = append([]string(nil), (*patch.AllowedTokens)...)
	}
	if patch.AllowedCollections != nil {
		out.AllowedCollections = append([]string(nil), (*patch.AllowedCollections)...)
	}
	if patch.AllowedRecipients != nil {
		out.AllowedRecipients = append([]string(nil), (*patch.AllowedRecipients)...)
	}
	if patch.RecipientNicknames != nil {
		if out.RecipientNicknames == nil {
			out.RecipientNicknames = map[string]string{}
		} else {
			merged := make(map[string]string, len(out.RecipientNicknames)+len(patch.RecipientNicknames))
			for k, v := range out.RecipientNicknames {
				merged[k] = v
			}
			out.RecipientNicknames = merged
		}
		for k, v := range patch.RecipientNicknames {
			out.RecipientNicknames[k] = v
		}
	}
	if patch.AllowGuardianWallet != nil {
		out.AllowGuardianWallet = *patch.AllowGuardianWallet
	}
	out.Version = CurrentVersion
	out.UpdatedAt = now
	return out
}
