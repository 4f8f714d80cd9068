package database

import (
	"context"

	"repair-tracker/internal/models"
	"repair-tracker/internal/store"
)

func (s *Store) AggregateStatusCounts(ctx context.Context) ([]store.StatusCount, error) {
	rows := []store.StatusCount{}
	err := s.db.WithContext(ctx).
		Table("statuses s").
		Select("s.name AS status, COUNT(r.id) AS count").
		Joins("LEFT JOIN requests r ON r.status_id = s.id").
		Group("s.id, s.name").
		Order("s.id").
		Scan(&rows).Error
	return rows, translate(err)
}

// AggregateMasterLoad считает заявки, назначенные на каждого мастера.
func (s *Store) AggregateMasterLoad(ctx context.Context) ([]store.MasterLoad, error) {
	rows := []store.MasterLoad{}
	err := s.db.WithContext(ctx).
		Table("requests r").
		Select("m.id AS master_id, m.full_name AS master, COUNT(r.id) AS count").
		Joins("JOIN masters m ON m.id = r.master_id").
		Group("m.id, m.full_name").
		Order("m.full_name").
		Scan(&rows).Error
	return rows, translate(err)
}

func (s *Store) CompletedDurations(ctx context.Context) ([]store.Duration, error) {
	rows := []store.Duration{}
	err := s.db.WithContext(ctx).
		Table("requests r").
		Select("r.id AS request_id, r.date_created, r.date_completed").
		Joins("JOIN statuses s ON s.id = r.status_id").
		Where("s.name = ? AND r.date_completed IS NOT NULL", models.StatusCompleted.Name()).
		Order("r.id").
		Scan(&rows).Error
	return rows, translate(err)
}

func (s *Store) AggregatePerformance(ctx context.Context) ([]store.PerformanceRow, error) {
	rows := []store.PerformanceRow{}
	err := s.db.WithContext(ctx).
		Table("requests r").
		Select(`m.id AS master_id, m.full_name AS master, r.id AS request_id,
			c.full_name AS client, et.name || ' ' || r.model AS equipment, s.name AS status,
			r.date_created, r.date_start_work, r.date_completed, r.cost`).
		Joins("JOIN masters m ON m.id = r.master_id").
		Joins("JOIN clients c ON c.id = r.client_id").
		Joins("JOIN equipment_types et ON et.id = r.equipment_type_id").
		Joins("JOIN statuses s ON s.id = r.status_id").
		Order("m.full_name, r.date_created, r.id").
		Scan(&rows).Error
	return rows, translate(err)
}
