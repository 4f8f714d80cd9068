package database

import (
	"context"
	"errors"
	"strings"

	"repair-tracker/internal/models"
	"repair-tracker/internal/store"

	"gorm.io/gorm"
)

func (s *Store) GetStatus(ctx context.Context, id uint) (models.Status, error) {
	var status models.Status
	err := s.db.WithContext(ctx).First(&status, id).Error
	return status, translate(err)
}

func (s *Store) StatusByCode(ctx context.Context, code models.StatusCode) (models.Status, error) {
	var status models.Status
	name := code.Name()
	if name == "" {
		return status, store.ErrNotFound
	}
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&status).Error
	return status, translate(err)
}

func (s *Store) ListStatuses(ctx context.Context) ([]models.Status, error) {
	statuses := []models.Status{}
	err := s.db.WithContext(ctx).Order("id").Find(&statuses).Error
	return statuses, translate(err)
}

func (s *Store) GetEquipmentType(ctx context.Context, id uint) (models.EquipmentType, error) {
	var et models.EquipmentType
	err := s.db.WithContext(ctx).First(&et, id).Error
	return et, translate(err)
}

// EnsureEquipmentType находит тип по имени или создаёт новый.
func (s *Store) EnsureEquipmentType(ctx context.Context, name string) (models.EquipmentType, error) {
	name = strings.TrimSpace(name)
	et := models.EquipmentType{Name: name}
	err := s.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&et).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// кто-то успел создать параллельно
		err = s.db.WithContext(ctx).Where("name = ?", name).First(&et).Error
	}
	return et, translate(err)
}

func (s *Store) ListEquipmentTypes(ctx context.Context) ([]models.EquipmentType, error) {
	types := []models.EquipmentType{}
	err := s.db.WithContext(ctx).Order("name").Find(&types).Error
	return types, translate(err)
}

func (s *Store) GetMaster(ctx context.Context, id uint) (models.Master, error) {
	var m models.Master
	err := s.db.WithContext(ctx).First(&m, id).Error
	return m, translate(err)
}

// ListMasters возвращает только тех, у кого сейчас роль "Мастер".
func (s *Store) ListMasters(ctx context.Context) ([]models.Master, error) {
	masters := []models.Master{}
	err := s.db.WithContext(ctx).
		Joins("JOIN users u ON u.id = masters.id").
		Where("u.role = ?", models.RoleMaster).
		Order("masters.full_name").
		Find(&masters).Error
	return masters, translate(err)
}

func (s *Store) GetClient(ctx context.Context, id uint) (models.Client, error) {
	var c models.Client
	err := s.db.WithContext(ctx).First(&c, id).Error
	return c, translate(err)
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	clients := []models.Client{}
	err := s.db.WithContext(ctx).Order("full_name").Find(&clients).Error
	return clients, translate(err)
}
