package user

import "handicraft-store/internal/pkg/errs"

var ErrInvalidRole = errs.Validation("invalid role")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleVendor:
		return 2
	case RoleCustomer:
		return 1
	default:
		return 0
	}
}

func (r Role) IsAtLeast(required Role) bool {
	return r.Level() >= required.Level()
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}
