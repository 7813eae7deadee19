package analytics

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"
)

func TestFinancialMetrics(t *testing.T) {
	rows := []SaleRow{
		{Documento: "NF-1", Cliente: "ACME", Marca: "X", Valor: 100, Data: month(1)},
		{Documento: "NF-1", Cliente: "ACME", Marca: "Y", Valor: 200, Data: month(1)},
		{Documento: "NF-2", Cliente: "Beta", Marca: "X", Valor: 300, Data: month(2)},
	}

	m, err := NewAnalyzer(zap.NewNop()).FinancialMetrics(context.Background(), rows)
	if err != nil {
		t.Fatalf("FinancialMetrics: %v", err)
	}

	if m.ReceitaTotal != 600 {
		t.Errorf("receitaTotal = %v, want 600", m.ReceitaTotal)
	}
	// ticket médio por documento distinto: 600 / 2
	if m.TicketMedio != 300 {
		t.Errorf("ticketMedio = %v, want 300", m.TicketMedio)
	}

	if len(m.PorMes) != 2 || m.PorMes[0].Mes != "2024-01" || m.PorMes[0].Receita != 300 {
		t.Errorf("porMes = %+v", m.PorMes)
	}
	if m.PorMes[1].Mes != "2024-02" || m.PorMes[1].Receita != 300 {
		t.Errorf("porMes[1] = %+v", m.PorMes[1])
	}

	if len(m.TopClientes) != 2 || m.TopClientes[0].Nome != "ACME" || m.TopClientes[0].PercentualReceita != 50 {
		t.Errorf("topClientes = %+v", m.TopClientes)
	}
	if len(m.TopMarcas) != 2 || m.TopMarcas[0].Nome != "X" {
		t.Errorf("topMarcas = %+v", m.TopMarcas)
	}
}

func TestFinancialMetricsSemLinhas(t *testing.T) {
	m, err := NewAnalyzer(zap.NewNop()).FinancialMetrics(context.Background(), nil)
	if err != nil {
		t.Fatalf("FinancialMetrics: %v", err)
	}

	if m.ReceitaTotal != 0 || m.TicketMedio != 0 {
		t.Errorf("universo vazio: %+v", m)
	}
	if math.IsNaN(m.TicketMedio) || math.IsInf(m.TicketMedio, 0) {
		t.Error("ticketMedio produziu NaN/Inf")
	}
	if len(m.PorMes) != 0 {
		t.Errorf("porMes = %+v, want vazio", m.PorMes)
	}
}

func TestCacheKeyNormalizaFiltros(t *testing.T) {
	a := Filtros{Anos: []int{2024, 2023}, Marcas: []string{"Y", "X"}}
	b := Filtros{Anos: []int{2023, 2024}, Marcas: []string{"X", "Y"}}

	if cacheKey("behavior", a) != cacheKey("behavior", b) {
		t.Error("filtros equivalentes deveriam gerar a mesma chave")
	}
	if cacheKey("behavior", a) == cacheKey("financial", a) {
		t.Error("prefixos diferentes não podem colidir")
	}

	c := Filtros{Anos: []int{2024}}
	if cacheKey("behavior", a) == cacheKey("behavior", c) {
		t.Error("filtros diferentes não podem colidir")
	}
}

func TestCacheKeyNaoMutaFiltros(t *testing.T) {
	f := Filtros{Marcas: []string{"Y", "X"}}
	cacheKey("behavior", f)
	if f.Marcas[0] != "Y" {
		t.Error("cacheKey não pode reordenar o slice original")
	}
}
