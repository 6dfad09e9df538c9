// Package pricing computes role-based price breakdowns from markup rules.
// All calculations are pure integer arithmetic over types.Money; the engine
// holds no state and performs no I/O.
package pricing

import (
	"errors"
	"fmt"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/types"
)

// Sentinel errors for rule validation and calculation.
var (
	ErrInvalidQuantity  = errors.New("pricing: quantity must be positive")
	ErrNegativeMarkup   = errors.New("pricing: markup value must not be negative")
	ErrMarkupTooLarge   = errors.New("pricing: percentage markup above 10000 bps")
	ErrProfitBounds     = errors.New("pricing: min_profit exceeds max_profit")
	ErrNoTiers          = errors.New("pricing: tiered rule has no tiers")
	ErrOverlappingTiers = errors.New("pricing: tier ranges overlap or are unordered")
)

// MarkupType selects how a rule's markup is computed.
type MarkupType string

const (
	MarkupFixed      MarkupType = "fixed"      // flat amount in minor units, per unit
	MarkupPercentage MarkupType = "percentage" // basis points of base cost
	MarkupTiered     MarkupType = "tiered"     // quantity-tiered basis points
)

// Tier is a quantity range with a percentage markup. MaxQuantity == 0
// means the tier is unbounded above.
type Tier struct {
	MinQuantity int64 `json:"min_quantity"`
	MaxQuantity int64 `json:"max_quantity"`
	ValueBps    int64 `json:"value_bps"`
}

// contains reports whether qty falls inside the tier range.
func (t Tier) contains(qty int64) bool {
	if qty < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == 0 || qty <= t.MaxQuantity
}

// Rule maps (service, role) to a markup policy. MarkupValue is minor
// currency units for fixed rules and basis points for percentage rules.
// MinProfit/MaxProfit clamp the computed per-unit markup when set.
type Rule struct {
	types.Entity
	ID          id.ID      `json:"id"`
	ServiceID   id.ID      `json:"service_id"`
	Role        types.Role `json:"role"`
	MarkupType  MarkupType `json:"markup_type"`
	MarkupValue int64      `json:"markup_value"`
	MinProfit   *int64     `json:"min_profit,omitempty"`
	MaxProfit   *int64     `json:"max_profit,omitempty"`
	Tiers       []Tier     `json:"tiers,omitempty"`
}

// Validate checks the rule's internal consistency.
func (r Rule) Validate() error {
	if r.MarkupValue < 0 {
		return ErrNegativeMarkup
	}
	if r.MarkupType == MarkupPercentage && r.MarkupValue > types.BasisPointsMax {
		return ErrMarkupTooLarge
	}
	if r.MinProfit != nil && r.MaxProfit != nil && *r.MinProfit > *r.MaxProfit {
		return ErrProfitBounds
	}

	if r.MarkupType == MarkupTiered {
		if len(r.Tiers) == 0 {
			return ErrNoTiers
		}
		for i, t := range r.Tiers {
			if t.ValueBps < 0 {
				return ErrNegativeMarkup
			}
			if t.ValueBps > types.BasisPointsMax {
				return ErrMarkupTooLarge
			}
			if i == 0 {
				continue
			}
			prev := r.Tiers[i-1]
			// Tiers must be ordered by MinQuantity and non-overlapping;
			// an unbounded tier (MaxQuantity == 0) must be last.
			if prev.MaxQuantity == 0 || t.MinQuantity <= prev.MaxQuantity {
				return fmt.Errorf("%w: tier %d", ErrOverlappingTiers, i)
			}
		}
	}

	return nil
}

// Quote is the price breakdown returned by Calculate. Markup and Profit
// are per-unit and whole-order amounts respectively.
type Quote struct {
	BaseCost    types.Money `json:"base_cost"`
	Markup      types.Money `json:"markup"`
	TotalAmount types.Money `json:"total_amount"`
	Profit      types.Money `json:"profit"`
	Quantity    int64       `json:"quantity"`
	AppliedRule *Rule       `json:"applied_rule,omitempty"`
}

// Calculate prices an order of quantity units at the given base cost for
// the given role. When no rule matches the role, markup is zero and the
// price is base cost times quantity.
func Calculate(baseCost types.Money, rules []Rule, role types.Role, quantity int64) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, ErrInvalidQuantity
	}

	rule := matchRule(rules, role)
	if rule == nil {
		return Quote{
			BaseCost:    baseCost,
			Markup:      types.Zero(baseCost.Currency),
			TotalAmount: baseCost.Multiply(quantity),
			Profit:      types.Zero(baseCost.Currency),
			Quantity:    quantity,
		}, nil
	}

	if err := rule.Validate(); err != nil {
		return Quote{}, err
	}

	markup := rawMarkup(baseCost, *rule, quantity)
	markup = clamp(markup, *rule)

	return Quote{
		BaseCost:    baseCost,
		Markup:      markup,
		TotalAmount: baseCost.Add(markup).Multiply(quantity),
		Profit:      markup.Multiply(quantity),
		Quantity:    quantity,
		AppliedRule: rule,
	}, nil
}

func matchRule(rules []Rule, role types.Role) *Rule {
	for i := range rules {
		if rules[i].Role == role {
			return &rules[i]
		}
	}
	return nil
}

// rawMarkup computes the per-unit markup before clamping.
func rawMarkup(baseCost types.Money, r Rule, quantity int64) types.Money {
	switch r.MarkupType {
	case MarkupFixed:
		return types.NewMoney(r.MarkupValue, baseCost.Currency)
	case MarkupPercentage:
		return baseCost.MulBasisPoints(r.MarkupValue)
	case MarkupTiered:
		tier := r.Tiers[0]
		for _, t := range r.Tiers {
			if t.contains(quantity) {
				tier = t
				break
			}
		}
		return baseCost.MulBasisPoints(tier.ValueBps)
	default:
		return types.Zero(baseCost.Currency)
	}
}

// clamp raises the markup to MinProfit and caps it at MaxProfit when the
// bounds are configured. The result is never negative: validation rejects
// negative configured values and a negative MinProfit cannot lower a
// non-negative raw markup below zero through Max.
func clamp(markup types.Money, r Rule) types.Money {
	if r.MinProfit != nil {
		markup = markup.Max(types.NewMoney(*r.MinProfit, markup.Currency))
	}
	if r.MaxProfit != nil {
		markup = markup.Min(types.NewMoney(*r.MaxProfit, markup.Currency))
	}
	return markup
}
