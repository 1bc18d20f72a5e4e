// Package apierr классифицирует ошибки исходящих HTTP-вызовов бота.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Op называет операцию, на которой произошла ошибка.
type Op string

const (
	OpAuth     Op = "auth"
	OpQuery    Op = "query"
	OpRedeploy Op = "redeploy"
	OpPing     Op = "ping"
)

// Kind отличает сетевой сбой от плохого статуса и неразборчивого ответа.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTransport
	KindStatus
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error — ошибка одной операции. Никогда не фатальна для цикла, который её получил.
type Error struct {
	Op         Op
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport создаёт ошибку сетевого уровня.
func Transport(op Op, err error) *Error {
	return &Error{Op: op, Kind: KindTransport, Err: err}
}

// Status создаёт ошибку не-2xx ответа; detail обычно содержит обрезанное тело.
func Status(op Op, code int, detail string) *Error {
	return &Error{Op: op, Kind: KindStatus, StatusCode: code, Err: errors.New(detail)}
}

// Decode создаёт ошибку разбора ответа.
func Decode(op Op, err error) *Error {
	return &Error{Op: op, Kind: KindDecode, Err: err}
}

// OpOf возвращает операцию из цепочки ошибок или пустую строку.
func OpOf(err error) Op {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// KindOf возвращает вид ошибки из цепочки.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsUnauthorized сообщает, что upstream ответил 401.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindStatus && e.StatusCode == http.StatusUnauthorized
}

// IsSuccess — 2xx.
func IsSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
