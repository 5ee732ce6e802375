// Package policy decides whether a principal may perform an action on a
// resource. Handlers and services consult Evaluate instead of branching on
// roles themselves.
package policy

import "github.com/rehna-jp/Louer/internal/models"

// Principal is the authenticated caller as carried in the access token.
type Principal struct {
	ID    uint
	Email string
	Role  models.Role
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

type Kind string

const (
	KindListing  Kind = "listing"
	KindBooking  Kind = "booking"
	KindFavorite Kind = "favorite"
	KindThread   Kind = "thread"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource describes the ownership facts of the target row.
//
// OwnerID is the listing landlord for listings and the user for favorites.
// TenantID and LandlordID are the two sides of a booking or thread; for a
// booking LandlordID is the landlord of the booked listing.
type Resource struct {
	Kind       Kind
	OwnerID    uint
	TenantID   uint
	LandlordID uint
}

// Evaluate returns true when p may perform a on r.
func Evaluate(p Principal, r Resource, a Action) bool {
	if p.ID == 0 {
		return false
	}
	switch r.Kind {
	case KindListing:
		return listing(p, r, a)
	case KindBooking:
		return booking(p, r, a)
	case KindFavorite:
		return favorite(p, r, a)
	case KindThread:
		return thread(p, r, a)
	}
	return false
}

func listing(p Principal, r Resource, a Action) bool {
	switch a {
	case ActionRead:
		return true
	case ActionCreate:
		return p.Role == models.RoleLandlord || p.IsAdmin()
	case ActionUpdate, ActionDelete:
		return p.IsAdmin() || (p.Role == models.RoleLandlord && r.OwnerID == p.ID)
	}
	return false
}

func booking(p Principal, r Resource, a Action) bool {
	switch a {
	case ActionCreate:
		return p.Role == models.RoleTenant || p.IsAdmin()
	case ActionRead, ActionUpdate:
		switch p.Role {
		case models.RoleAdmin:
			return true
		case models.RoleTenant:
			return r.TenantID == p.ID
		case models.RoleLandlord:
			return r.LandlordID == p.ID
		}
	}
	return false
}

func favorite(p Principal, r Resource, a Action) bool {
	switch a {
	case ActionCreate:
		return true
	case ActionRead, ActionDelete:
		return r.OwnerID == p.ID
	}
	return false
}

// thread access is limited to the two participants; admins may open a thread
// on behalf of a tenant but do not read or post in it.
func thread(p Principal, r Resource, a Action) bool {
	switch a {
	case ActionCreate:
		switch p.Role {
		case models.RoleAdmin:
			return true
		case models.RoleTenant:
			return r.TenantID == p.ID
		case models.RoleLandlord:
			return r.LandlordID == p.ID
		}
	case ActionRead, ActionUpdate:
		return r.TenantID == p.ID || r.LandlordID == p.ID
	}
	return false
}
