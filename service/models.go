// Package service defines the dynamic service catalog entry. A service's
// input schema is data, not code: new service types are added by storing a
// new schema, never by a code change.
package service

import (
	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/schema"
	"github.com/vendra/vendra/types"
)

// Service describes one sellable offering: its input form, its base cost,
// and which roles may order it.
type Service struct {
	types.Entity
	ID               id.ID         `json:"id"`
	TenantID         string        `json:"tenant_id"`
	Name             string        `json:"name"`
	InputSchema      schema.Schema `json:"input_schema"`
	BaseCost         types.Money   `json:"base_cost"`
	AllowedRoles     []types.Role  `json:"allowed_roles"`
	SupportsBulk     bool          `json:"supports_bulk"`
	RequiresApproval bool          `json:"requires_approval"`
	Active           bool          `json:"active"`
}

// AllowsRole reports whether the role may order this service. An empty
// AllowedRoles list means the service is open to every role.
func (s *Service) AllowsRole(role types.Role) bool {
	if len(s.AllowedRoles) == 0 {
		return true
	}
	return role.In(s.AllowedRoles)
}
