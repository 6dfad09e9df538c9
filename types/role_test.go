package types

import (
	"reflect"
	"testing"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleReseller, RoleSubReseller, RoleCustomer} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("superuser").Valid() {
		t.Error("unknown role should not be valid")
	}
}

func TestRoleIn(t *testing.T) {
	set := []Role{RoleReseller, RoleSubReseller}

	if !RoleReseller.In(set) {
		t.Error("reseller should be in set")
	}
	if RoleCustomer.In(set) {
		t.Error("customer should not be in set")
	}
	if RoleAdmin.In(nil) {
		t.Error("nothing is in the empty set")
	}
}

func TestChain(t *testing.T) {
	tests := []struct {
		name string
		leaf Role
		want []Role
	}{
		{"from customer", RoleCustomer, []Role{RoleCustomer, RoleSubReseller, RoleReseller, RoleAdmin}},
		{"from subreseller", RoleSubReseller, []Role{RoleSubReseller, RoleReseller, RoleAdmin}},
		{"from admin", RoleAdmin, []Role{RoleAdmin}},
		{"unknown role", Role("nobody"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chain(tt.leaf)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Chain(%s) = %v, want %v", tt.leaf, got, tt.want)
			}
		})
	}
}
