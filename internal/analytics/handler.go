package analytics

import (
	"net/http"

	"github.com/coopvale/backoffice/internal/user"
	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/coopvale/backoffice/pkg/rest"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreatePreset handles POST /analytics/presets
func (h *Handler) CreatePreset(c echo.Context) error {
	currentUser, err := user.GetCurrentUser(c)
	if err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	var input CreatePresetInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("erro ao processar dados")
	}

	if input.Name == "" {
		return rest.NewBadRequestError("nome do preset e obrigatorio")
	}

	result, apiErr := h.service.CreatePreset(c.Request().Context(), currentUser.ID, input)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusCreated, result)
}

// ListPresets handles GET /analytics/presets
func (h *Handler) ListPresets(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	result, apiErr := h.service.ListPresets(c.Request().Context())
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, result)
}

// GetPreset handles GET /analytics/presets/:id
func (h *Handler) GetPreset(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	pgUUID, apiErr := presetIDParam(c)
	if apiErr != nil {
		return apiErr
	}

	result, svcErr := h.service.GetPreset(c.Request().Context(), pgUUID)
	if svcErr != nil {
		return svcErr
	}

	return c.JSON(http.StatusOK, result)
}

// UpdatePreset handles PUT /analytics/presets/:id
func (h *Handler) UpdatePreset(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	pgUUID, apiErr := presetIDParam(c)
	if apiErr != nil {
		return apiErr
	}

	var input UpdatePresetInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("erro ao processar dados")
	}

	result, svcErr := h.service.UpdatePreset(c.Request().Context(), pgUUID, input)
	if svcErr != nil {
		return svcErr
	}

	return c.JSON(http.StatusOK, result)
}

// DeletePreset handles DELETE /analytics/presets/:id
func (h *Handler) DeletePreset(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	pgUUID, apiErr := presetIDParam(c)
	if apiErr != nil {
		return apiErr
	}

	if svcErr := h.service.DeletePreset(c.Request().Context(), pgUUID); svcErr != nil {
		return svcErr
	}

	return c.NoContent(http.StatusNoContent)
}

// BehaviorProfiles handles POST /analytics/behavior — POST porque os filtros
// ad-hoc chegam no corpo.
func (h *Handler) BehaviorProfiles(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	var input QueryInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("erro ao processar dados")
	}

	result, apiErr := h.service.BehaviorProfiles(c.Request().Context(), input)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, result)
}

// FinancialMetrics handles POST /analytics/financial
func (h *Handler) FinancialMetrics(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	var input QueryInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("erro ao processar dados")
	}

	result, apiErr := h.service.FinancialMetrics(c.Request().Context(), input)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, result)
}

func presetIDParam(c echo.Context) (pgtype.UUID, *rest.ApiErr) {
	presetID := c.Param("id")
	if presetID == "" {
		return pgtype.UUID{}, rest.NewBadRequestError("id do preset e obrigatorio")
	}

	pgUUID, err := parser.PgUUIDFromString(presetID)
	if err != nil {
		return pgtype.UUID{}, rest.NewBadRequestError("id do preset invalido")
	}
	return pgUUID, nil
}
