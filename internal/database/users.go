package database

import (
	"context"
	"errors"
	"fmt"

	"repair-tracker/internal/models"
	"repair-tracker/internal/store"

	"gorm.io/gorm"
)

func (s *Store) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("login = ?", login).First(&user).Error
	return user, translate(err)
}

func (s *Store) GetUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	return user, translate(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, translate(err)
}

func (s *Store) InsertUserAndClient(ctx context.Context, input store.RegisterInput) (uint, error) {
	user := models.User{
		Login:        input.Login,
		PasswordHash: input.PasswordHash,
		Role:         models.RoleClient,
		FullName:     input.FullName,
		Phone:        input.Phone,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("login = ?", input.Login).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return store.ErrLoginTaken
		}

		if err := tx.Create(&user).Error; err != nil {
			// уникальный индекс по login ловит гонку двух регистраций
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return store.ErrLoginTaken
			}
			return err
		}
		client := models.Client{ID: user.ID, FullName: user.FullName, Phone: user.Phone}
		if err := tx.Create(&client).Error; err != nil {
			return err
		}
		return createAuditLog(tx, user.ID, "user", user.ID, "register", "Регистрация клиента: "+user.Login)
	})
	switch {
	case err == nil:
		return user.ID, nil
	case errors.Is(err, store.ErrLoginTaken):
		return 0, store.ErrLoginTaken
	}
	// прочие конфликты (например, занятый clients.id) откатывают и пользователя
	return 0, translate(err)
}

// UpdateUserRole меняет роль и при необходимости заводит строку мастера или клиента
// с тем же id, чтобы пользователь сразу мог работать в новой роли.
func (s *Store) UpdateUserRole(ctx context.Context, id uint, role models.UserRole, actorID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		oldRole := user.Role

		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return err
		}

		switch role {
		case models.RoleMaster:
			m := models.Master{ID: user.ID, FullName: user.FullName}
			if err := tx.Where("id = ?", user.ID).FirstOrCreate(&m).Error; err != nil {
				return err
			}
		case models.RoleClient:
			c := models.Client{ID: user.ID, FullName: user.FullName, Phone: user.Phone}
			if err := tx.Where("id = ?", user.ID).FirstOrCreate(&c).Error; err != nil {
				return err
			}
		}

		return createAuditLog(tx, actorID, "user", user.ID, "role_change",
			fmt.Sprintf("Роль изменена: %s -> %s", oldRole, role))
	})
	return translate(err)
}
