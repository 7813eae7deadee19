package imports

import (
	"io"
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

// StartImport handles POST /imports (multipart: file + mappingId|mappingName
// + logId opcional para retomada)
func (h *Handler) StartImport(c echo.Context) error {
	currentUser, err := user.GetCurrentUser(c)
	if err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return rest.NewBadRequestError("arquivo e obrigatorio")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return rest.NewUnprocessableEntity("erro ao abrir arquivo")
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return rest.NewUnprocessableEntity("erro ao ler arquivo")
	}

	input := StartImportInput{
		Arquivo:     fileHeader.Filename,
		FileBytes:   fileBytes,
		MappingID:   c.FormValue("mappingId"),
		MappingName: c.FormValue("mappingName"),
		LogID:       c.FormValue("logId"),
	}

	result, apiErr := h.service.StartImport(c.Request().Context(), currentUser.ID, input)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusCreated, result)
}

// GetProgress handles GET /imports/:id/progress
func (h *Handler) GetProgress(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	logID := c.Param("id")
	if logID == "" {
		return rest.NewBadRequestError("id da importacao e obrigatorio")
	}

	pgUUID, err := parser.PgUUIDFromString(logID)
	if err != nil {
		return rest.NewBadRequestError("id da importacao invalido")
	}

	result, apiErr := h.service.GetProgress(c.Request().Context(), pgUUID)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, result)
}

// ListImports handles GET /imports
func (h *Handler) ListImports(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	result, apiErr := h.service.ListImports(c.Request().Context())
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, result)
}

// DeleteImport handles DELETE /imports/:id
func (h *Handler) DeleteImport(c echo.Context) error {
	if _, err := user.GetCurrentUser(c); err != nil {
		return rest.NewUnauthorizedRequestError("usuario nao autenticado")
	}

	logID := c.Param("id")
	if logID == "" {
		return rest.NewBadRequestError("id da importacao e obrigatorio")
	}

	pgUUID, err := parser.PgUUIDFromString(logID)
	if err != nil {
		return rest.NewBadRequestError("id da importacao invalido")
	}

	apiErr := h.service.DeleteImport(c.Request().Context(), pgUUID)
	if apiErr != nil {
		return apiErr
	}

	return c.NoContent(http.StatusNoContent)
}
