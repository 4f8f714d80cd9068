// Package service: операции над заявками на ремонт поверх таблицы прав,
// проверок жизненного цикла и store.Store.
package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"repair-tracker/internal/access"
	"repair-tracker/internal/apperr"
	"repair-tracker/internal/models"
	"repair-tracker/internal/store"

	log "github.com/sirupsen/logrus"
)

// storeErr переводит ошибки хранилища в типизированные ошибки приложения.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, store.ErrConflict):
		return apperr.InvalidState(apperr.ReasonStale,
			what+" was changed by someone else, reload and try again")
	case errors.Is(err, store.ErrLoginTaken):
		return apperr.New(apperr.KindLoginTaken, apperr.ReasonNone, "login already taken")
	case errors.Is(err, store.ErrConstraint):
		return apperr.Wrap(apperr.KindConstraint, err, "storage constraint violated")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	log.WithError(err).WithField("entity", what).Error("store failure")
	return apperr.Wrap(apperr.KindInternal, err, "storage failure")
}

// requireRole: проверка по таблице ролей, до чтения заявки.
func requireRole(p models.Principal, action access.Action) error {
	if access.Allowed(p.Role, action) {
		return nil
	}
	return apperr.Unauthorized(apperr.ReasonNone,
		fmt.Sprintf("role %q may not %s", p.Role, action))
}

// authorize: полная проверка с учётом "только свои".
func authorize(p models.Principal, action access.Action, facts access.Facts) error {
	if access.Can(p, action, facts) {
		return nil
	}
	if access.Allowed(p.Role, action) {
		return apperr.Unauthorized(apperr.ReasonSelfOwnership,
			fmt.Sprintf("role %q may %s only for own requests", p.Role, action))
	}
	return requireRole(p, action)
}

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.Validation(apperr.ReasonEmptyField, field+" must not be empty")
	}
	return value, nil
}

func minLength(field, value string, n int) error {
	if utf8.RuneCountInString(value) < n {
		return apperr.Validation(apperr.ReasonTooShort,
			fmt.Sprintf("%s must be at least %d characters", field, n))
	}
	return nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
