package pricing

import "github.com/vendra/vendra/types"

// Share is one role's configured cut of the profit pool, in basis points
// of the whole pool.
type Share struct {
	Role types.Role `json:"role"`
	Bps  int64      `json:"bps"`
}

// Distribute allocates the profit pool (finalPrice − baseCost) across the
// given shares, walking the slice in order (callers pass the role chain
// leaf to root, see types.Chain). Each share is computed against the full
// pool and then capped by what remains, so cumulative distributed profit
// never exceeds the pool; once the pool is exhausted every remaining role
// receives zero.
//
// Ordering of roles with equal priority is the caller's responsibility:
// the slice order is the allocation order.
func Distribute(finalPrice, baseCost types.Money, shares []Share) map[types.Role]types.Money {
	pool := finalPrice.Subtract(baseCost)
	if pool.IsNegative() {
		pool = types.Zero(pool.Currency)
	}

	result := make(map[types.Role]types.Money, len(shares))
	remaining := pool

	for _, s := range shares {
		want := pool.MulBasisPoints(s.Bps)
		if want.IsNegative() {
			want = types.Zero(pool.Currency)
		}
		alloc := want.Min(remaining)
		result[s.Role] = alloc
		remaining = remaining.Subtract(alloc)
	}

	return result
}
