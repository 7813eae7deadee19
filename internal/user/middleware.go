package user

import (
	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/labstack/echo/v4"
)

// IdentityMiddleware lê a identidade injetada pelo gateway de autenticação
// (fora do escopo deste serviço) nos headers X-User-ID / X-User-Email e a
// disponibiliza no contexto da requisição.
func IdentityMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID != "" {
				pgUUID, err := parser.PgUUIDFromString(userID)
				if err == nil {
					SetCurrentUser(c, CurrentUser{
						ID:    pgUUID,
						Email: c.Request().Header.Get("X-User-Email"),
					})
				}
			}
			return next(c)
		}
	}
}
