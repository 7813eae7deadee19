package mappings

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Condições de filtro de linha.
const (
	ConditionEquals     = "equals"
	ConditionNotEquals  = "not_equals"
	ConditionContains   = "contains"
	ConditionIsEmpty    = "is_empty"
	ConditionIsNotEmpty = "is_not_empty"
)

// RowFilter descreve uma condição aplicada sobre a coluna de origem antes da
// importação. Os filtros de um mapeamento combinam por E, na ordem declarada.
type RowFilter struct {
	Column    string `json:"column"`
	Condition string `json:"condition"`
	Value     string `json:"value,omitempty"`
}

// ColumnMapping liga colunas da planilha de origem aos campos canônicos.
// Columns indexa por campo canônico e aponta para o cabeçalho de origem.
type ColumnMapping struct {
	ID          pgtype.UUID
	Name        string
	Description string
	Dominio     string
	Columns     map[string]string
	Filters     []RowFilter
	CreatedBy   pgtype.UUID
	CreatedAt   time.Time
}

// Input DTOs

type CreateMappingInput struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Dominio     string            `json:"dominio" validate:"required"`
	Columns     map[string]string `json:"columns" validate:"required"`
	Filters     []RowFilter       `json:"filters"`
}

type UpdateMappingInput struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Dominio     *string           `json:"dominio"`
	Columns     map[string]string `json:"columns"`
	Filters     []RowFilter       `json:"filters"`
}

// Output DTOs

type MappingOutput struct {
	ID          pgtype.UUID       `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Dominio     string            `json:"dominio"`
	Columns     map[string]string `json:"columns"`
	Filters     []RowFilter       `json:"filters"`
	CreatedAt   time.Time         `json:"created_at"`
}

func toMappingOutput(m ColumnMapping) *MappingOutput {
	filters := m.Filters
	if filters == nil {
		filters = []RowFilter{}
	}
	return &MappingOutput{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Dominio:     m.Dominio,
		Columns:     m.Columns,
		Filters:     filters,
		CreatedAt:   m.CreatedAt,
	}
}
