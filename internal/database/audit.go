package database

import (
	"context"

	"repair-tracker/internal/models"

	"gorm.io/gorm"
)

// пишется в той же транзакции, что и само изменение
func createAuditLog(tx *gorm.DB, userID uint, entity string, entityID uint, action, details string) error {
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	return tx.Create(&record).Error
}

func (s *Store) ListAudit(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at asc, id asc").
		Find(&logs).Error
	return logs, translate(err)
}
