package rest

import (
	"net/http"
)

type ApiErr struct {
	Message string   `json:"message"`
	Err     string   `json:"error"`
	Code    int      `json:"code"`
	Causes  []Causes `json:"causes,omitempty"`
}

type Causes struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ApiErr) Error() string {
	return e.Message
}

func NewApiErr(message, err string, code int, causes []Causes) *ApiErr {
	return &ApiErr{
		Message: message,
		Err:     err,
		Code:    code,
		Causes:  causes,
	}
}

func NewBadRequestError(message string) *ApiErr {
	return &ApiErr{
		Message: message,
		Err:     "bad_request",
		Code:    http.StatusBadRequest,
	}
}

func NewBadRequestValidationError(message string, causes []Causes) *ApiErr {
	return &ApiErr{
		Message: message,
		Err:     "bad_request",
		Code:    http.StatusBadRequest,
		Causes:  causes,
	}
}

func NewUnauthorizedRequestError(message string) *ApiErr {
	return &ApiErr{
		Message: message,
		Err:     "unauthorized",
		Code:    http.StatusUnauthorized,
	}
}

func NewNotFoundError(message string) *ApiErr {
	return &ApiErr{
		Message: message,
		Err:     "not_found",
		Code:    http.StatusNotFound,
	}
}

func NewUnprocessableEntity(message string) *ApiErr {
	return &ApiErr{
		Message: message,
		Err:     "unprocessable_entity",
		Code:    http.StatusUnprocessableEntity,
	}
}

func NewInternalServerError(message string) *ApiErr {
	return &ApiErr{
		Message: message,
		Err:     "internal_server_error",
		Code:    http.StatusInternalServerError,
	}
}
