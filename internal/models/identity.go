package models

import "github.com/google/uuid"

// Identity is the authenticated caller, passed explicitly into every service operation.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

func (i Identity) Is(role Role) bool {
	return i.Role == role
}
