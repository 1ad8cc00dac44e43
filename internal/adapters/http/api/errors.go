package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/arcade/internal/app"
	"github.com/okian/arcade/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrBodyTooLarge    = errors.New("request body too large")
	ErrUnsupportedType = errors.New("unsupported content type")
)

// Error is an API error: the failing operation, its kind and the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps an error to its HTTP status and response code. Timeouts are
// checked before solver failures because an interrupted solver reports both.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, model.ErrInfeasibleConstraints):
		return http.StatusUnprocessableEntity, "infeasible"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, model.ErrSolver):
		return http.StatusBadGateway, "solver_error"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "cancelled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
