package vendra

import "github.com/vendra/vendra/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Role is re-exported from types package.
type Role = types.Role

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export the role hierarchy
const (
	RoleAdmin       = types.RoleAdmin
	RoleReseller    = types.RoleReseller
	RoleSubReseller = types.RoleSubReseller
	RoleCustomer    = types.RoleCustomer
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
