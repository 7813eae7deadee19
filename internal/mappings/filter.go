package mappings

import (
	"strings"

	"github.com/coopvale/backoffice/internal/spreadsheet"
)

// ApplyFilters avalia os filtros do mapeamento sobre uma linha crua da
// planilha, indexada pelos cabeçalhos de origem. Todos os filtros precisam
// passar (E lógico, na ordem declarada); linha reprovada é descartada em
// silêncio pelo engine, nunca contada como erro.
func (m ColumnMapping) ApplyFilters(row spreadsheet.Row) bool {
	for _, f := range m.Filters {
		if !matches(row, f) {
			return false
		}
	}
	return true
}

func matches(row spreadsheet.Row, f RowFilter) bool {
	cell, ok := row[f.Column]
	value := ""
	if ok {
		value = strings.TrimSpace(cell.AsString())
	}

	switch f.Condition {
	case ConditionEquals:
		return strings.EqualFold(value, strings.TrimSpace(f.Value))
	case ConditionNotEquals:
		return !strings.EqualFold(value, strings.TrimSpace(f.Value))
	case ConditionContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(strings.TrimSpace(f.Value)))
	case ConditionIsEmpty:
		return value == ""
	case ConditionIsNotEmpty:
		return value != ""
	default:
		// condição desconhecida não elimina a linha
		return true
	}
}

// ValidCondition informa se a condição é uma das suportadas.
func ValidCondition(condition string) bool {
	switch condition {
	case ConditionEquals, ConditionNotEquals, ConditionContains, ConditionIsEmpty, ConditionIsNotEmpty:
		return true
	}
	return false
}
