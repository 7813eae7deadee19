package mappings

import (
	"testing"

	"github.com/coopvale/backoffice/internal/spreadsheet"
)

func row(pairs map[string]string) spreadsheet.Row {
	r := make(spreadsheet.Row, len(pairs))
	for k, v := range pairs {
		if v == "" {
			r[k] = spreadsheet.EmptyCell()
		} else {
			r[k] = spreadsheet.TextCell(v)
		}
	}
	return r
}

func TestApplyFiltersConditions(t *testing.T) {
	tests := []struct {
		name   string
		filter RowFilter
		row    spreadsheet.Row
		want   bool
	}{
		{"equals passa", RowFilter{Column: "Tipo", Condition: ConditionEquals, Value: "Venda"}, row(map[string]string{"Tipo": "venda"}), true},
		{"equals reprova", RowFilter{Column: "Tipo", Condition: ConditionEquals, Value: "Venda"}, row(map[string]string{"Tipo": "Devolução"}), false},
		{"not_equals", RowFilter{Column: "Tipo", Condition: ConditionNotEquals, Value: "Devolução"}, row(map[string]string{"Tipo": "Venda"}), true},
		{"contains", RowFilter{Column: "Cliente", Condition: ConditionContains, Value: "acme"}, row(map[string]string{"Cliente": "ACME Ltda"}), true},
		{"is_empty em coluna vazia", RowFilter{Column: "Obs", Condition: ConditionIsEmpty}, row(map[string]string{"Obs": ""}), true},
		{"is_empty em coluna ausente", RowFilter{Column: "Obs", Condition: ConditionIsEmpty}, row(map[string]string{}), true},
		{"is_not_empty", RowFilter{Column: "Obs", Condition: ConditionIsNotEmpty}, row(map[string]string{"Obs": "x"}), true},
	}

	for _, tc := range tests {
		m := ColumnMapping{Filters: []RowFilter{tc.filter}}
		if got := m.ApplyFilters(tc.row); got != tc.want {
			t.Errorf("%s: ApplyFilters = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestApplyFiltersAndSemantics(t *testing.T) {
	m := ColumnMapping{Filters: []RowFilter{
		{Column: "Tipo", Condition: ConditionEquals, Value: "Venda"},
		{Column: "Cliente", Condition: ConditionIsNotEmpty},
	}}

	if !m.ApplyFilters(row(map[string]string{"Tipo": "Venda", "Cliente": "ACME"})) {
		t.Error("linha que satisfaz todos os filtros deveria passar")
	}
	if m.ApplyFilters(row(map[string]string{"Tipo": "Venda", "Cliente": ""})) {
		t.Error("basta um filtro reprovar para a linha cair")
	}
}

func TestApplyFiltersNoFilters(t *testing.T) {
	m := ColumnMapping{}
	if !m.ApplyFilters(row(map[string]string{"qualquer": "coisa"})) {
		t.Error("mapeamento sem filtros aceita todas as linhas")
	}
}

func TestNaturalKeyFields(t *testing.T) {
	vendas := NaturalKeyFields(DominioVendas)
	if len(vendas) != 2 || vendas[0] != "documento" || vendas[1] != "produto" {
		t.Errorf("chave de vendas = %v", vendas)
	}
	contabil := NaturalKeyFields(DominioContabil)
	if len(contabil) != 3 || contabil[0] != "classificacao" {
		t.Errorf("chave contábil = %v", contabil)
	}
	if NaturalKeyFields("outro") != nil {
		t.Error("domínio desconhecido deveria devolver nil")
	}
}
