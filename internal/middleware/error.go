package middleware

import (
	"fmt"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/logger"
	"net/http"

	"github.com/go-chi/render"
)

// AppError represents a handler failure ready to be written as JSON.
type AppError struct {
	Error   error
	Message string
	Code    int
	Kind    apperr.Kind
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and the message.
type ErrorDetail struct {
	Code    apperr.Kind `json:"code"`
	Message string      `json:"message"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindValidation:      http.StatusBadRequest,
	apperr.KindConflict:        http.StatusBadRequest,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindInternal:        http.StatusInternalServerError,
}

// FromError converts err into an AppError. Conflicts share 400 with
// validation failures; the code field tells them apart.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	kind := apperr.KindOf(err)
	return &AppError{
		Error:   err,
		Message: apperr.MessageOf(err),
		Code:    statusByKind[kind],
		Kind:    kind,
	}
}

// BadRequest builds a validation AppError for malformed requests.
func BadRequest(format string, args ...any) *AppError {
	return FromError(apperr.Validation(format, args...))
}

// Error is a middleware that converts handler errors into JSON error responses.
func Error(log logger.Logger) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					writeError(w, r, FromError(apperr.Internal(err, "internal server error")))
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			if appErr.Code >= http.StatusInternalServerError {
				log.Error(appErr.Error, appErr.Message)
			} else {
				log.With(map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
					"code":   string(appErr.Kind),
				}).Debug(appErr.Message)
			}
			writeError(w, r, appErr)
		})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, appErr *AppError) {
	code := appErr.Code
	if code == 0 {
		code = http.StatusInternalServerError
	}
	kind := appErr.Kind
	if kind == "" {
		kind = apperr.KindInternal
	}
	render.Status(r, code)
	render.JSON(w, r, ErrorBody{Error: ErrorDetail{Code: kind, Message: appErr.Message}})
}

