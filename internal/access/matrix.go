// Package access: таблица прав "роль / действие". Проверки чистые,
// в хранилище отсюда никто не ходит.
package access

import "repair-tracker/internal/models"

type Action string

const (
	CreateRequest            Action = "create_request"
	AssignMaster             Action = "assign_master"
	CompleteRequest          Action = "complete_request"
	EditDescription          Action = "edit_description"
	ChangeStatus             Action = "change_status"
	RespondToRequest         Action = "respond_to_request"
	ViewReports              Action = "view_reports"
	ManageUsers              Action = "manage_users"
	ViewAllClientsAndMasters Action = "view_clients_and_masters"
	ViewRequest              Action = "view_request"
	CommentRequest           Action = "comment_request"
)

type grant int

const (
	deny grant = iota
	allow
	// own: разрешено только для "своих" записей, см. Facts.
	own
)

var matrix = map[models.UserRole]map[Action]grant{
	models.RoleAdmin: {
		CreateRequest:            allow,
		AssignMaster:             allow,
		CompleteRequest:          allow,
		EditDescription:          allow,
		ChangeStatus:             allow,
		ViewReports:              allow,
		ManageUsers:              allow,
		ViewAllClientsAndMasters: allow,
		ViewRequest:              allow,
		CommentRequest:           allow,
	},
	models.RoleManager: {
		CreateRequest:            allow,
		AssignMaster:             allow,
		CompleteRequest:          allow,
		ViewReports:              allow,
		ViewAllClientsAndMasters: allow,
		ViewRequest:              allow,
		CommentRequest:           allow,
	},
	models.RoleOperator: {
		CreateRequest:            allow,
		AssignMaster:             allow,
		EditDescription:          allow,
		ChangeStatus:             allow,
		ViewAllClientsAndMasters: allow,
		ViewRequest:              allow,
		CommentRequest:           allow,
	},
	models.RoleMaster: {
		CompleteRequest:  own,
		RespondToRequest: allow,
		ViewRequest:      own,
		CommentRequest:   own,
	},
	models.RoleClient: {
		CreateRequest: own,
		ViewRequest:   own,
	},
}

// Facts: сведения о заявке, нужные для проверки "только свои".
// Нулевое значение означает, что заявки ещё нет (например, проверка до чтения).
type Facts struct {
	// ClientID: клиент заявки (или клиент, для которого создаётся заявка).
	ClientID uint
	// MasterID: назначенный мастер, nil если не назначен.
	MasterID *uint
	// Known: факты заполнены; без них own-разрешения не выдаются.
	Known bool
}

func RequestFacts(r models.Request) Facts {
	return Facts{ClientID: r.ClientID, MasterID: r.MasterID, Known: true}
}

// Can: может ли p выполнить action с учётом фактов о заявке.
func Can(p models.Principal, action Action, facts Facts) bool {
	switch matrix[p.Role][action] {
	case allow:
		return true
	case own:
		if !facts.Known {
			return false
		}
		return owns(p, action, facts)
	default:
		return false
	}
}

// Allowed: ответ на уровне роли без учёта "своих" записей; own считается разрешением.
func Allowed(role models.UserRole, action Action) bool {
	return matrix[role][action] != deny
}

func owns(p models.Principal, action Action, facts Facts) bool {
	switch p.Role {
	case models.RoleClient:
		return facts.ClientID == p.UserID
	case models.RoleMaster:
		if facts.MasterID != nil && *facts.MasterID == p.UserID {
			return true
		}
		// неназначенные заявки мастер видит, но не завершает
		return action == ViewRequest && facts.MasterID == nil
	}
	return false
}

// CanChangeRole запрещает менять собственную роль, что бы ни говорила таблица.
func CanChangeRole(actor models.Principal, targetUserID uint) bool {
	return actor.UserID != targetUserID
}
