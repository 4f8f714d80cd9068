// Package apperr описывает ошибки операций над заявками.
// У каждой ошибки есть Kind и, где нужно, Reason: по ним вызывающий код
// различает причины, не разбирая текст сообщения.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnauthorized       Kind = "unauthorized"
	KindNotFound           Kind = "not_found"
	KindInvalidState       Kind = "invalid_state"
	KindValidation         Kind = "validation"
	KindLoginTaken         Kind = "login_taken"
	KindConstraint         Kind = "constraint"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindInternal           Kind = "internal"
)

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonWrongStatus     Reason = "wrong-status"
	ReasonTerminal        Reason = "terminal"
	ReasonSelfOwnership   Reason = "self-ownership"
	ReasonAlreadyAssigned Reason = "already-assigned"
	ReasonSelfRoleChange  Reason = "self-role-change"
	ReasonNoMaster        Reason = "no-master"
	ReasonMasterAssigned  Reason = "master-assigned"
	ReasonStale           Reason = "stale"
	ReasonNonPositiveCost Reason = "non-positive-cost"
	ReasonInvalidTarget   Reason = "invalid-target"
	ReasonEmptyField      Reason = "empty-field"
	ReasonTooShort        Reason = "too-short"
)

type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает с другой *Error по Kind и, если у цели он задан, по Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

func New(kind Kind, reason Reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: msg}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Unauthorized(reason Reason, msg string) *Error {
	return New(KindUnauthorized, reason, msg)
}

func NotFound(msg string) *Error {
	return New(KindNotFound, ReasonNone, msg)
}

func InvalidState(reason Reason, msg string) *Error {
	return New(KindInvalidState, reason, msg)
}

func Validation(reason Reason, msg string) *Error {
	return New(KindValidation, reason, msg)
}

// KindOf возвращает Kind первой *Error в цепочке err,
// KindInternal для любой другой ошибки и "" для nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonNone
}
