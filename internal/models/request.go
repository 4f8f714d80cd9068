package models

import "time"

type Request struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint   `gorm:"not null;index" json:"client_id"`
	Client   Client `json:"-"`

	EquipmentTypeID uint          `gorm:"not null" json:"equipment_type_id"`
	EquipmentType   EquipmentType `json:"-"`

	Model        string  `gorm:"size:255;not null" json:"model"`
	SerialNumber *string `gorm:"size:100" json:"serial_number,omitempty"`
	Description  string  `gorm:"type:text;not null" json:"description"`

	StatusID uint   `gorm:"not null;index" json:"status_id"`
	Status   Status `json:"-"`

	MasterID *uint   `gorm:"index" json:"master_id,omitempty"`
	Master   *Master `json:"-"`

	DateCreated   time.Time  `gorm:"not null" json:"date_created"`
	DateStartWork *time.Time `json:"date_start_work,omitempty"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
	Cost          *float64   `gorm:"type:decimal(12,2)" json:"cost,omitempty"`
	RepairParts   *string    `gorm:"type:text" json:"repair_parts,omitempty"`
}

// StatusCode: статус по имени из справочника; Status должен быть подгружен.
func (r Request) StatusCode() StatusCode {
	return r.Status.Code()
}

func (r Request) HasMaster() bool {
	return r.MasterID != nil
}

// RequestView: строка списка заявок с уже подставленными именами.
type RequestView struct {
	ID            uint       `json:"id"`
	ClientID      uint       `json:"client_id"`
	ClientName    string     `json:"client_name"`
	EquipmentType string     `json:"equipment_type"`
	Model         string     `json:"model"`
	SerialNumber  *string    `json:"serial_number,omitempty"`
	Description   string     `json:"description"`
	StatusID      uint       `json:"status_id"`
	Status        string     `json:"status"`
	MasterID      *uint      `json:"master_id,omitempty"`
	MasterName    *string    `json:"master_name,omitempty"`
	DateCreated   time.Time  `json:"date_created"`
	DateStartWork *time.Time `json:"date_start_work,omitempty"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
	Cost          *float64   `json:"cost,omitempty"`
	RepairParts   *string    `json:"repair_parts,omitempty"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	MasterID  *uint     `gorm:"index" json:"master_id,omitempty"`
	AuthorID  uint      `json:"author_id"`
	RequestID uint      `gorm:"not null;index" json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}
