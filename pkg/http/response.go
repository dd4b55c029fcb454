package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the API envelope with the given status and data.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes bad request error.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// UnauthorizedResponse writes unauthorized error.
func UnauthorizedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusUnauthorized, data)
}

// ForbiddenResponse writes forbidden error.
func ForbiddenResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusForbidden, data)
}

// TooManyRequestsResponse writes rate-limit error with reset metadata.
func TooManyRequestsResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusTooManyRequests, data)
}

// MethodNotAllowedResponse writes method not allowed error.
func MethodNotAllowedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusMethodNotAllowed, data)
}
