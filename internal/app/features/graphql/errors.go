package graphql

import (
	"context"
	"errors"

	"github.com/dalemusser/planit/internal/app/system/authz"
	"github.com/dalemusser/planit/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Error codes reported in extensions.code.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeBadUserInput       = "BAD_USER_INPUT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL"
)

// Messages clients match on.
const (
	MsgAuthentication  = "Authentication Error"
	MsgNotAuthorized   = "Not Authorized"
	MsgInvalidCreds    = "Invalid Credentials!"
	MsgInvalidUserID   = "Invalid UserId"
	MsgInvalidSchedule = "Invalid ScheduleId"
	MsgInvalidPlan     = "Invalid PlanId"
	MsgInvalidRange    = "Invalid date range"
	MsgEmailTaken      = "Email already registered"
	MsgInvalidEmail    = "Invalid email"
	MsgRateLimited     = "Too many requests"
	MsgInternal        = "Internal server error"
)

// Error is a failure returned to the client. graphql-go copies Extensions
// into the response's errors[].extensions.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

func validation(msg string) error { return &Error{Code: CodeBadUserInput, Message: msg} }

func credentials() error { return &Error{Code: CodeInvalidCredentials, Message: MsgInvalidCreds} }

// publicError turns any resolver error into one safe to return. Known
// categories keep their message; anything else is logged and replaced.
func (root *Resolver) publicError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	switch {
	case errors.As(err, &ge):
		root.Log.Debug("graphql operation rejected",
			zap.String("operation", op),
			zap.String("code", ge.Code),
			zap.String("message", ge.Message))
		return ge
	case errors.Is(err, authz.ErrUnauthenticated):
		root.Log.Debug("graphql operation unauthenticated", zap.String("operation", op))
		return &Error{Code: CodeUnauthenticated, Message: MsgAuthentication, cause: err}
	case errors.Is(err, authz.ErrForbidden):
		root.Log.Debug("graphql operation forbidden", zap.String("operation", op))
		return &Error{Code: CodeForbidden, Message: MsgNotAuthorized, cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		root.Log.Warn("graphql operation timed out", zap.String("operation", op), zap.Error(err))
	default:
		root.Log.Error("graphql operation failed", zap.String("operation", op), zap.Error(err))
	}
	return &Error{Code: CodeInternal, Message: MsgInternal, cause: err}
}

// track is deferred by every root field: it converts the returned error and
// counts the outcome.
//
//	defer root.track(ctx, "addFriend", &err)
func (root *Resolver) track(ctx context.Context, op string, errp *error) {
	*errp = root.publicError(ctx, op, *errp)
	metrics.ObserveOperation(op, *errp)
}
