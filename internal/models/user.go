package models

import "time"

type UserRole string

// значения совпадают с тем, что лежит в колонке users.role
const (
	RoleAdmin    UserRole = "Администратор"
	RoleManager  UserRole = "Менеджер"
	RoleOperator UserRole = "Оператор"
	RoleMaster   UserRole = "Мастер"
	RoleClient   UserRole = "Клиент"
)

var AllRoles = []UserRole{RoleAdmin, RoleManager, RoleOperator, RoleMaster, RoleClient}

func (r UserRole) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Login        string    `gorm:"uniqueIndex;size:50;not null" json:"login"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(20);not null" json:"role"`
	FullName     string    `gorm:"size:255;not null" json:"full_name"`
	Phone        string    `gorm:"size:50" json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// Principal: аутентифицированный пользователь, от имени которого выполняется действие.
type Principal struct {
	UserID      uint     `json:"user_id"`
	Role        UserRole `json:"role"`
	DisplayName string   `json:"display_name"`
}

func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Role: u.Role, DisplayName: u.FullName}
}
