package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "não encontrado"
	}
	return fmt.Sprintf("%s não encontrado", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("%s inválido", e.Field)
	}
	return "erro de validação"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("conflito em %s: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("conflito em %s", e.Resource)
	default:
		return "conflito"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// CapacityError is returned when an assignment would push a bus past
// capacidade_onibus + lugares_extras.
type CapacityError struct {
	BusID     int64
	Capacity  int
	Occupancy int
	Requested int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("ônibus %d sem capacidade: ocupação %d + %d solicitados excede %d lugares",
		e.BusID, e.Occupancy, e.Requested, e.Capacity)
}

// Free is how many seats are still available.
func (e CapacityError) Free() int {
	if free := e.Capacity - e.Occupancy; free > 0 {
		return free
	}
	return 0
}

type InsufficientBalanceError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("saldo insuficiente: disponível %s, solicitado %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "erro interno"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsCapacity(err error) bool {
	var target CapacityError
	return errors.As(err, &target)
}

func IsInsufficientBalance(err error) bool {
	var target InsufficientBalanceError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
