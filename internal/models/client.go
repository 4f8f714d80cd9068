package models

// Client делит id с пользователем роли "Клиент": регистрация создаёт обе записи.
type Client struct {
	ID       uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FullName string `gorm:"size:255;not null" json:"full_name"`
	Phone    string `gorm:"size:50" json:"phone"`
}

// Master делит id с пользователем роли "Мастер".
type Master struct {
	ID       uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FullName string `gorm:"size:255;not null" json:"full_name"`
}

type EquipmentType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}
