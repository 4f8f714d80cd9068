package database

import (
	"context"
	"errors"
	"fmt"

	"repair-tracker/internal/models"
	"repair-tracker/internal/store"

	"gorm.io/gorm"
)

// Store: реализация store.Store поверх gorm.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", store.ErrConstraint, err)
	}
	return err
}

const requestViewColumns = `r.id, r.client_id, c.full_name AS client_name, et.name AS equipment_type,
	r.model, r.serial_number, r.description, r.status_id, s.name AS status,
	r.master_id, m.full_name AS master_name,
	r.date_created, r.date_start_work, r.date_completed, r.cost, r.repair_parts`

func (s *Store) requestViews(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("requests r").
		Select(requestViewColumns).
		Joins("JOIN clients c ON c.id = r.client_id").
		Joins("JOIN equipment_types et ON et.id = r.equipment_type_id").
		Joins("JOIN statuses s ON s.id = r.status_id").
		Joins("LEFT JOIN masters m ON m.id = r.master_id")
}

func (s *Store) GetRequest(ctx context.Context, id uint) (models.Request, error) {
	var req models.Request
	err := s.db.WithContext(ctx).Preload("Status").First(&req, id).Error
	return req, translate(err)
}

func (s *Store) GetRequestView(ctx context.Context, id uint) (models.RequestView, error) {
	var views []models.RequestView
	if err := s.requestViews(ctx).Where("r.id = ?", id).Scan(&views).Error; err != nil {
		return models.RequestView{}, translate(err)
	}
	if len(views) == 0 {
		return models.RequestView{}, store.ErrNotFound
	}
	return views[0], nil
}

func (s *Store) ListRequests(ctx context.Context, filter store.RequestFilter) ([]models.RequestView, error) {
	q := s.requestViews(ctx)
	if filter.ClientID != nil {
		q = q.Where("r.client_id = ?", *filter.ClientID)
	}
	if filter.MasterID != nil {
		// мастер видит свои заявки и неназначенные
		q = q.Where("(r.master_id = ? OR r.master_id IS NULL)", *filter.MasterID)
	}
	if filter.StatusID != nil {
		q = q.Where("r.status_id = ?", *filter.StatusID)
	}

	views := []models.RequestView{}
	err := q.Order("r.date_created desc, r.id desc").Scan(&views).Error
	return views, translate(err)
}

func (s *Store) InsertRequest(ctx context.Context, input store.CreateRequestInput) (uint, error) {
	req := models.Request{
		ClientID:        input.ClientID,
		EquipmentTypeID: input.EquipmentTypeID,
		Model:           input.Model,
		SerialNumber:    input.SerialNumber,
		Description:     input.Description,
		StatusID:        input.StatusID,
		DateCreated:     input.CreatedAt,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client", "EquipmentType", "Status", "Master").Create(&req).Error; err != nil {
			return err
		}
		return createAuditLog(tx, input.ActorID, "request", req.ID, "create",
			fmt.Sprintf("Создана заявка: %s", req.Model))
	})
	if err != nil {
		return 0, translate(err)
	}
	return req.ID, nil
}

// guarded обновляет заявку id, только если она всё ещё совпадает с expect.
func guarded(tx *gorm.DB, id uint, expect store.Expect, values map[string]interface{}) error {
	q := tx.Model(&models.Request{}).Where("id = ? AND status_id = ?", id, expect.StatusID)
	if expect.MasterID == nil {
		q = q.Where("master_id IS NULL")
	} else {
		q = q.Where("master_id = ?", *expect.MasterID)
	}

	res := q.Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Request{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return store.ErrNotFound
		}
		return store.ErrConflict
	}
	return nil
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id uint, expect store.Expect, update store.StatusUpdate) error {
	values := map[string]interface{}{"status_id": update.StatusID}
	if update.Completed {
		values["date_completed"] = update.At
	}
	if update.StartWork {
		values["date_start_work"] = gorm.Expr("COALESCE(date_start_work, ?)", update.At)
	}
	if update.ClearMaster {
		values["master_id"] = nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guarded(tx, id, expect, values); err != nil {
			return err
		}
		return createAuditLog(tx, update.ActorID, "request", id, "status_change",
			fmt.Sprintf("Статус изменён: %d -> %d", expect.StatusID, update.StatusID))
	})
	return translate(err)
}

func (s *Store) UpdateRequestMaster(ctx context.Context, id uint, expect store.Expect, update store.MasterUpdate) error {
	values := map[string]interface{}{
		"master_id": update.MasterID,
		"status_id": update.StatusID,
	}
	if update.StartWork {
		values["date_start_work"] = gorm.Expr("COALESCE(date_start_work, ?)", update.At)
	}

	details := "Назначение мастера отменено"
	if update.MasterID != nil {
		details = fmt.Sprintf("Назначен мастер: %d", *update.MasterID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guarded(tx, id, expect, values); err != nil {
			return err
		}
		return createAuditLog(tx, update.ActorID, "request", id, "assign", details)
	})
	return translate(err)
}

func (s *Store) CompleteRequest(ctx context.Context, id uint, expect store.Expect, input store.CompleteInput) error {
	values := map[string]interface{}{
		"status_id":    input.StatusID,
		"repair_parts": input.RepairParts,
	}
	if input.Cost != nil {
		values["cost"] = *input.Cost
	}
	if input.Completed {
		values["date_completed"] = input.At
	}
	if input.ClearMaster {
		values["master_id"] = nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guarded(tx, id, expect, values); err != nil {
			return err
		}
		return createAuditLog(tx, input.ActorID, "request", id, "complete",
			fmt.Sprintf("Заявка закрыта, статус: %d", input.StatusID))
	})
	return translate(err)
}

func (s *Store) UpdateRequestDescription(ctx context.Context, id uint, expect store.Expect, text string, actorID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guarded(tx, id, expect, map[string]interface{}{"description": text}); err != nil {
			return err
		}
		return createAuditLog(tx, actorID, "request", id, "update", "Изменено описание заявки")
	})
	return translate(err)
}

func (s *Store) InsertComment(ctx context.Context, comment models.Comment) (uint, error) {
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return 0, translate(err)
	}
	return comment.ID, nil
}

func (s *Store) ListComments(ctx context.Context, requestID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at asc, id asc").
		Find(&comments).Error
	return comments, translate(err)
}
