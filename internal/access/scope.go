package access

import "repair-tracker/internal/models"

// Scope: фильтр строк для списка заявок.
type Scope struct {
	// ClientID оставляет только заявки одного клиента.
	ClientID *uint
	// MasterID оставляет заявки этого мастера и неназначенные.
	MasterID *uint
}

func ScopeFor(p models.Principal) Scope {
	id := p.UserID
	switch p.Role {
	case models.RoleClient:
		return Scope{ClientID: &id}
	case models.RoleMaster:
		return Scope{MasterID: &id}
	}
	return Scope{}
}
