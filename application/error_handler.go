package application

import (
	"log"
	"net/http"

	"github.com/coopvale/backoffice/pkg/rest"
	"github.com/labstack/echo/v4"
)

func (a *Application) CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var code int
	var message string

	if apiErr, ok := err.(*rest.ApiErr); ok {
		code = apiErr.Code
		message = apiErr.Message
		log.Printf("code: %v, message: %s, causes: %v", apiErr.Code, apiErr.Message, apiErr.Causes)
	} else if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch he.Code {
		case http.StatusUnauthorized:
			message = he.Error()
		default:
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(he.Code)
			}
		}
		log.Printf("code: %v, message: %s", code, message)
	} else {
		code = http.StatusInternalServerError
		message = "Erro interno do servidor"
		c.Logger().Error(err)
	}

	apiErr := &rest.ApiErr{
		Message: message,
		Err:     http.StatusText(code),
		Code:    code,
	}
	c.JSON(code, apiErr)
}
