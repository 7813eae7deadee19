package mappings

import (
	"net/http"

	"github.com/coopvale/backoffice/internal/user"
	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/coopvale/backoffice/pkg/rest"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateMapping handles POST /mappings
func (h *Handler) CreateMapping(c echo.Context) error {
	currentUser, err := user.GetCurrentUser(c)
	if err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	var input CreateMappingInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("erro ao processar dados")
	}

	if input.Name == "" {
		return rest.NewBadRequestError("nome do mapeamento e obrigatorio")
	}

	result, apiErr := h.service.CreateMapping(c.Request().Context(), currentUser.ID, input)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusCreated, result)
}

// ListMappings handles GET /mappings
func (h *Handler) ListMappings(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	result, apiErr := h.service.ListMappings(c.Request().Context())
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, result)
}

// GetMapping handles GET /mappings/:id
func (h *Handler) GetMapping(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	mappingID := c.Param("id")
	if mappingID == "" {
		return rest.NewBadRequestError("id do mapeamento e obrigatorio")
	}

	pgUUID, err := parser.PgUUIDFromString(mappingID)
	if err != nil {
		return rest.NewBadRequestError("id do mapeamento invalido")
	}

	result, apiErr := h.service.GetMapping(c.Request().Context(), pgUUID)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, result)
}

// UpdateMapping handles PUT /mappings/:id
func (h *Handler) UpdateMapping(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	mappingID := c.Param("id")
	if mappingID == "" {
		return rest.NewBadRequestError("id do mapeamento e obrigatorio")
	}

	pgUUID, err := parser.PgUUIDFromString(mappingID)
	if err != nil {
		return rest.NewBadRequestError("id do mapeamento invalido")
	}

	var input UpdateMappingInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("erro ao processar dados")
	}

	result, apiErr := h.service.UpdateMapping(c.Request().Context(), pgUUID, input)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, result)
}

// DeleteMapping handles DELETE /mappings/:id
func (h *Handler) DeleteMapping(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	mappingID := c.Param("id")
	if mappingID == "" {
		return rest.NewBadRequestError("id do mapeamento e obrigatorio")
	}

	pgUUID, err := parser.PgUUIDFromString(mappingID)
	if err != nil {
		return rest.NewBadRequestError("id do mapeamento invalido")
	}

	apiErr := h.service.DeleteMapping(c.Request().Context(), pgUUID)
	if apiErr != nil {
		return apiErr
	}

	return c.NoContent(http.StatusNoContent)
}
