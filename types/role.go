package types

// Role is the reseller-hierarchy role attached to an account.
type Role string

// Role vocabulary, ordered root to leaf in the reseller hierarchy.
const (
	RoleAdmin       Role = "admin"
	RoleReseller    Role = "reseller"
	RoleSubReseller Role = "subreseller"
	RoleCustomer    Role = "customer"
)

// hierarchy orders roles root-first. Profit distribution walks the
// reverse of this order (leaf to root).
var hierarchy = []Role{RoleAdmin, RoleReseller, RoleSubReseller, RoleCustomer}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range hierarchy {
		if r == known {
			return true
		}
	}
	return false
}

// Depth returns the position of the role in the hierarchy, 0 for admin.
// Unknown roles sort below every known role.
func (r Role) Depth() int {
	for i, known := range hierarchy {
		if r == known {
			return i
		}
	}
	return len(hierarchy)
}

// In reports whether r is a member of the given set.
func (r Role) In(set []Role) bool {
	for _, candidate := range set {
		if r == candidate {
			return true
		}
	}
	return false
}

// Chain returns the hierarchy from the given leaf role up to the root,
// leaf first. Chain(RoleSubReseller) = [subreseller, reseller, admin].
func Chain(leaf Role) []Role {
	depth := leaf.Depth()
	if depth >= len(hierarchy) {
		return nil
	}

	chain := make([]Role, 0, depth+1)
	for i := depth; i >= 0; i-- {
		chain = append(chain, hierarchy[i])
	}
	return chain
}
