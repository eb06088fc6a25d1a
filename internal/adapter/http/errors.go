package http

import (
	"errors"
	"net/http"

	"loan-service/internal/domain/application"
	"loan-service/internal/domain/document"
	"loan-service/internal/domain/loan"
	documentuc "loan-service/internal/usecase/document"
	"loan-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

var errInvalidBody = errors.New("invalid body")

// statusFor maps a domain error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound),
		errors.Is(err, application.ErrNotFound),
		errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrInvalidState),
		errors.Is(err, loan.ErrOutstandingBalance),
		errors.Is(err, loan.ErrPaymentExceedsBalance),
		errors.Is(err, loan.ErrInvalidAmount),
		errors.Is(err, application.ErrInvalidTransition),
		errors.Is(err, document.ErrAlreadyVerified):
		return http.StatusBadRequest
	case errors.Is(err, loan.ErrLimitExceeded),
		errors.Is(err, loan.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, documentuc.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.WithContext(c.Request().Context()).Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"err", err)
		return c.JSON(code, ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bindAndValidate decodes the body into dst and runs the validator. It writes
// the 400 itself and reports false when the request must stop.
func bindAndValidate(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, badRequest(c, errInvalidBody.Error())
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
