// Package lifecycle проверяет переходы статусов заявки. Каждая проверка
// работает с заявкой, только что перечитанной из хранилища.
package lifecycle

import (
	"fmt"

	"repair-tracker/internal/apperr"
	"repair-tracker/internal/models"
)

func terminal(s models.StatusCode) error {
	switch s {
	case models.StatusCompleted:
		return apperr.InvalidState(apperr.ReasonTerminal, "cannot alter a completed request")
	case models.StatusCancelled:
		return apperr.InvalidState(apperr.ReasonTerminal, "cannot alter a cancelled request")
	}
	return nil
}

// CheckOpen: nil для Новой / В работе, иначе соответствующая ошибка.
// Вызывается до разбора целевого статуса, чтобы закрытая заявка всегда давала terminal.
func CheckOpen(req models.Request) error {
	s := req.StatusCode()
	if err := terminal(s); err != nil {
		return err
	}
	if !s.Open() {
		return apperr.InvalidState(apperr.ReasonWrongStatus,
			fmt.Sprintf("request %d has status %q", req.ID, s))
	}
	return nil
}

// CheckAssign проверяет назначение (или снятие, target == nil) мастера.
// Замена или снятие уже назначенного мастера требует override.
func CheckAssign(req models.Request, target *uint, override bool) error {
	if err := CheckOpen(req); err != nil {
		return err
	}
	if target == nil && req.MasterID == nil {
		return apperr.InvalidState(apperr.ReasonNoMaster,
			fmt.Sprintf("request %d has no master to unassign", req.ID))
	}
	if req.MasterID != nil && !override {
		return apperr.InvalidState(apperr.ReasonAlreadyAssigned,
			fmt.Sprintf("request %d already has master %d", req.ID, *req.MasterID))
	}
	return nil
}

// StatusAfterAssign: Новая заявка с мастером уходит "В работе", в остальных
// случаях статус не меняется, в том числе при снятии мастера.
func StatusAfterAssign(current models.StatusCode, target *uint) models.StatusCode {
	if target != nil && current == models.StatusNew {
		return models.StatusInProgress
	}
	return current
}

// CheckRespond: мастер берёт неназначенную заявку. Override здесь нет,
// назначенную заявку не берут, даже если это тот же мастер.
func CheckRespond(req models.Request) error {
	if err := CheckOpen(req); err != nil {
		return err
	}
	if req.MasterID != nil {
		return apperr.InvalidState(apperr.ReasonAlreadyAssigned,
			fmt.Sprintf("request %d is already assigned", req.ID))
	}
	return nil
}

// CheckComplete проверяет завершение. Целевой статус выбирает вызывающий:
// "Выполнена" или "Отменена".
func CheckComplete(req models.Request, target models.StatusCode, cost float64) error {
	if err := CheckOpen(req); err != nil {
		return err
	}
	switch target {
	case models.StatusCompleted:
		if req.MasterID == nil {
			return apperr.InvalidState(apperr.ReasonNoMaster,
				fmt.Sprintf("request %d has no master assigned", req.ID))
		}
		if cost <= 0 {
			return apperr.Validation(apperr.ReasonNonPositiveCost, "cost must be greater than zero")
		}
	case models.StatusCancelled:
	default:
		return apperr.Validation(apperr.ReasonInvalidTarget,
			fmt.Sprintf("completion cannot set status %q", target))
	}
	return nil
}

// CheckChangeStatus проверяет ручную смену статуса.
func CheckChangeStatus(req models.Request, target models.StatusCode) error {
	if err := CheckOpen(req); err != nil {
		return err
	}
	switch target {
	case models.StatusNew:
		if req.MasterID != nil {
			return apperr.InvalidState(apperr.ReasonMasterAssigned,
				fmt.Sprintf("request %d has a master; unassign before returning it to %q", req.ID, target))
		}
	case models.StatusCompleted:
		if req.MasterID == nil {
			return apperr.InvalidState(apperr.ReasonNoMaster,
				fmt.Sprintf("request %d has no master assigned", req.ID))
		}
	case models.StatusInProgress, models.StatusCancelled:
	default:
		return apperr.Validation(apperr.ReasonInvalidTarget, "unknown status")
	}
	return nil
}

func CheckEditDescription(req models.Request) error {
	return CheckOpen(req)
}

// ClearsMaster: снимается ли мастер при переходе в статус s.
func ClearsMaster(s models.StatusCode) bool {
	return s == models.StatusCancelled
}
