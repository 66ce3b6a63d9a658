package graphql

import (
	"context"
	"log/slog"
	"net/http"

	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/errors"
)

// resolverError is the client-facing form of a resolver failure. graphql-go
// copies Extensions into the response error.
type resolverError struct {
	code    string
	message string
	details string
}

func (e *resolverError) Error() string {
	return e.message
}

func (e *resolverError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.code}
	if e.details != "" {
		ext["details"] = e.details
	}

	return ext
}

// Code returns the business error code carried in extensions.
func (e *resolverError) Code() string {
	return e.code
}

// toResolverError converts err into a resolverError. Application errors keep
// their code; details are only exposed for client errors other than 401 and 403.
// Anything else is logged and reported as INTERNAL_ERROR.
func (r *Resolver) toResolverError(ctx context.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPCode()
		if status >= http.StatusInternalServerError {
			r.log(ctx).Error("resolver failed", slog.String("code", appErr.ErrorCode()), slog.Any("error", err))
		}

		out := &resolverError{code: appErr.ErrorCode(), message: appErr.Message()}
		if status < http.StatusInternalServerError && status != http.StatusUnauthorized && status != http.StatusForbidden {
			out.details = appErr.Details()
		}

		return out
	}

	r.log(ctx).Error("unhandled resolver error", slog.Any("error", err))

	return &resolverError{
		code:    domainerrors.ErrInternalError.ErrorCode(),
		message: domainerrors.ErrInternalError.Message(),
	}
}
