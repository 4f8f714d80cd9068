package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"repair-tracker/internal/access"
	"repair-tracker/internal/models"
	"repair-tracker/internal/store"
)

// ReportService считает отчёты заново при каждом вызове, без кэша.
type ReportService struct {
	store store.ReportStore
}

func NewReportService(s store.ReportStore) *ReportService {
	return &ReportService{store: s}
}

type AverageTime struct {
	Hours float64 `json:"hours"`
	// Count == 0 означает "нет данных", а не нулевую длительность.
	Count int `json:"count"`
}

type MasterPerformance struct {
	MasterID uint                   `json:"master_id"`
	Master   string                 `json:"master"`
	Requests []store.PerformanceRow `json:"requests"`
}

func (s *ReportService) StatusReport(ctx context.Context, p models.Principal) ([]store.StatusCount, error) {
	if err := requireRole(p, access.ViewReports); err != nil {
		return nil, err
	}
	rows, err := s.store.AggregateStatusCounts(ctx)
	return rows, storeErr(err, "status report")
}

func (s *ReportService) MasterLoadReport(ctx context.Context, p models.Principal) ([]store.MasterLoad, error) {
	if err := requireRole(p, access.ViewReports); err != nil {
		return nil, err
	}
	rows, err := s.store.AggregateMasterLoad(ctx)
	return rows, storeErr(err, "master load report")
}

func (s *ReportService) AverageRepairTime(ctx context.Context, p models.Principal) (AverageTime, error) {
	if err := requireRole(p, access.ViewReports); err != nil {
		return AverageTime{}, err
	}
	durations, err := s.store.CompletedDurations(ctx)
	if err != nil {
		return AverageTime{}, storeErr(err, "average repair time")
	}
	return averageHours(durations), nil
}

func averageHours(durations []store.Duration) AverageTime {
	var total time.Duration
	count := 0
	for _, d := range durations {
		if d.DateCreated.IsZero() || d.DateCompleted.IsZero() {
			continue
		}
		total += d.DateCompleted.Sub(d.DateCreated)
		count++
	}
	if count == 0 {
		return AverageTime{}
	}
	return AverageTime{Hours: total.Hours() / float64(count), Count: count}
}

// MasterPerformanceReport группирует строки по мастерам в порядке, в котором их отдало хранилище.
func (s *ReportService) MasterPerformanceReport(ctx context.Context, p models.Principal) ([]MasterPerformance, error) {
	if err := requireRole(p, access.ViewReports); err != nil {
		return nil, err
	}
	rows, err := s.store.AggregatePerformance(ctx)
	if err != nil {
		return nil, storeErr(err, "performance report")
	}
	return groupByMaster(rows), nil
}

func groupByMaster(rows []store.PerformanceRow) []MasterPerformance {
	groups := []MasterPerformance{}
	for _, row := range rows {
		n := len(groups)
		if n == 0 || groups[n-1].MasterID != row.MasterID {
			groups = append(groups, MasterPerformance{MasterID: row.MasterID, Master: row.Master})
			n++
		}
		groups[n-1].Requests = append(groups[n-1].Requests, row)
	}
	return groups
}

const reportTimeLayout = "2006-01-02 15:04"

// WritePerformanceText печатает отчёт "кто выполнял какие заявки" в текстовом виде.
func WritePerformanceText(w io.Writer, groups []MasterPerformance) error {
	var b strings.Builder
	b.WriteString("--- Отчет: Кто Выполнял Какие Заявки ---\n\n")
	if len(groups) == 0 {
		b.WriteString("Нет данных для отчета.\n")
	}
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Мастер: %s\n%s\n", g.Master, strings.Repeat("-", 60))
		for _, r := range g.Requests {
			fmt.Fprintf(&b, "  Заявка №%d: %s\n", r.RequestID, r.Equipment)
			fmt.Fprintf(&b, "    Клиент: %s\n", r.Client)
			fmt.Fprintf(&b, "    Статус: %s\n", r.Status)
			fmt.Fprintf(&b, "    Создана: %s\n", r.DateCreated.Format(reportTimeLayout))
			if r.DateStartWork != nil {
				fmt.Fprintf(&b, "    Начало работы: %s\n", r.DateStartWork.Format(reportTimeLayout))
			}
			if r.DateCompleted != nil {
				fmt.Fprintf(&b, "    Завершена: %s\n", r.DateCompleted.Format(reportTimeLayout))
			}
			if r.Cost != nil {
				fmt.Fprintf(&b, "    Стоимость: %.2f руб.\n", *r.Cost)
			}
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
