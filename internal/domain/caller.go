package domain

import (
	"errors"
)

// Caller is the verified identity supplied by the authentication layer.
type Caller struct {
	Subject string
	Role    Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin may move funds from any account
	RoleAdmin Role = "admin"

	// RoleOwner may move funds only from accounts it owns
	RoleOwner Role = "owner"

	// RoleViewer can only view resources, no mutations
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleOwner:  true,
	RoleViewer: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanTransferFrom decides whether the caller may initiate a transfer out of source.
func (c *Caller) CanTransferFrom(source *Account) bool {
	switch c.Role {
	case RoleAdmin:
		return true
	case RoleOwner:
		return source.OwnerID != "" && source.OwnerID == c.Subject
	default:
		return false
	}
}

// CanOpenAccounts checks if the caller may open accounts.
func (c *Caller) CanOpenAccounts() bool {
	return c.Role == RoleAdmin || c.Role == RoleOwner
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrForbidden    = errors.New("caller may not act on this account")
)
