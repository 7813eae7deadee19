package audit

import (
	"net/http"
	"time"

	"github.com/coopvale/backoffice/internal/user"
	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/coopvale/backoffice/pkg/rest"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	auditor *Auditor
}

func NewHandler(auditor *Auditor) *Handler {
	return &Handler{auditor: auditor}
}

// RunAudit handles GET /audit — auditoria sob demanda. Aceita ?importId=
// para auditar uma importação única e ?dias= para limitar por recência.
func (h *Handler) RunAudit(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	var scope Scope

	if importID := c.QueryParam("importId"); importID != "" {
		pgUUID, err := parser.PgUUIDFromString(importID)
		if err != nil {
			return rest.NewBadRequestError("id da importacao invalido")
		}
		scope.ImportID = pgUUID
	}

	if dias := c.QueryParam("dias"); dias != "" {
		d, err := time.ParseDuration(dias + "h")
		if err != nil {
			return rest.NewBadRequestError("parametro dias invalido")
		}
		scope.Since = time.Now().Add(-d * 24)
	}

	problems, evaluated, err := h.auditor.Audit(c.Request().Context(), scope)
	if err != nil {
		return rest.NewInternalServerError("erro ao executar auditoria")
	}

	return c.JSON(http.StatusOK, &AuditOutput{
		Problemas:            problems,
		ImportacoesAvaliadas: evaluated,
	})
}
