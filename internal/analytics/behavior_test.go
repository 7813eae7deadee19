package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
)

func sale(cliente, marca string, valor float64, data time.Time) SaleRow {
	return SaleRow{Cliente: cliente, Marca: marca, Valor: valor, Data: data}
}

func month(m int) time.Time {
	return time.Date(2024, time.Month(m), 10, 0, 0, 0, 0, time.UTC)
}

func profiles(t *testing.T, rows []SaleRow, popularity []BrandShare) []ComportamentoCliente {
	t.Helper()
	result, err := NewAnalyzer(zap.NewNop()).BehaviorProfiles(context.Background(), rows, popularity)
	if err != nil {
		t.Fatalf("BehaviorProfiles: %v", err)
	}
	return result
}

func TestMarcasPercentuaisOrdenadas(t *testing.T) {
	rows := []SaleRow{
		sale("ACME", "X", 100, month(1)),
		sale("ACME", "Y", 300, month(1)),
	}

	result := profiles(t, rows, nil)
	if len(result) != 1 {
		t.Fatalf("perfis = %d, want 1", len(result))
	}

	marcas := result[0].Marcas
	if len(marcas) != 2 {
		t.Fatalf("marcas = %d, want 2", len(marcas))
	}
	// maior participação primeiro
	if marcas[0].Nome != "Y" || marcas[0].PercentualReceita != 75 {
		t.Errorf("marcas[0] = %+v, want Y com 75%%", marcas[0])
	}
	if marcas[1].Nome != "X" || marcas[1].PercentualReceita != 25 {
		t.Errorf("marcas[1] = %+v, want X com 25%%", marcas[1])
	}
}

func TestFrequencia(t *testing.T) {
	var alta, media, baixa []SaleRow
	for m := 1; m <= 7; m++ {
		alta = append(alta, sale("alta", "X", 10, month(m)))
	}
	for m := 1; m <= 3; m++ {
		media = append(media, sale("media", "X", 10, month(m)))
	}
	baixa = append(baixa, sale("baixa", "X", 10, month(1)))

	result := profiles(t, append(append(alta, media...), baixa...), nil)

	want := map[string]string{"alta": FreqAlta, "media": FreqMedia, "baixa": FreqBaixa}
	for _, p := range result {
		if p.Frequencia != want[p.Cliente] {
			t.Errorf("cliente %s: frequencia = %s, want %s", p.Cliente, p.Frequencia, want[p.Cliente])
		}
	}
}

func TestSazonalidade(t *testing.T) {
	// receita constante: CV 0 → baixa
	estavel := []SaleRow{
		sale("estavel", "X", 100, month(1)),
		sale("estavel", "X", 100, month(2)),
		sale("estavel", "X", 100, month(3)),
	}
	// picos fortes: CV alto → alta
	sazonal := []SaleRow{
		sale("sazonal", "X", 10, month(1)),
		sale("sazonal", "X", 10, month(2)),
		sale("sazonal", "X", 500, month(12)),
	}

	result := profiles(t, append(estavel, sazonal...), nil)
	for _, p := range result {
		switch p.Cliente {
		case "estavel":
			if p.Sazonalidade != FreqBaixa || p.CoeficienteVar != 0 {
				t.Errorf("estavel: %s cv=%v", p.Sazonalidade, p.CoeficienteVar)
			}
		case "sazonal":
			if p.Sazonalidade != FreqAlta {
				t.Errorf("sazonal: %s cv=%v", p.Sazonalidade, p.CoeficienteVar)
			}
		}
	}
}

func TestTendencia(t *testing.T) {
	crescendo := []SaleRow{
		sale("cresce", "X", 100, month(1)),
		sale("cresce", "X", 100, month(2)),
		sale("cresce", "X", 200, month(3)),
		sale("cresce", "X", 200, month(4)),
	}
	caindo := []SaleRow{
		sale("cai", "X", 200, month(1)),
		sale("cai", "X", 200, month(2)),
		sale("cai", "X", 100, month(3)),
		sale("cai", "X", 100, month(4)),
	}
	estavel := []SaleRow{
		sale("estavel", "X", 100, month(1)),
		sale("estavel", "X", 100, month(2)),
		sale("estavel", "X", 101, month(3)),
		sale("estavel", "X", 101, month(4)),
	}

	result := profiles(t, append(append(crescendo, caindo...), estavel...), nil)
	want := map[string]string{
		"cresce":  TendenciaCrescendo,
		"cai":     TendenciaCaindo,
		"estavel": TendenciaEstavel,
	}
	for _, p := range result {
		if p.Tendencia != want[p.Cliente] {
			t.Errorf("cliente %s: tendencia = %s, want %s", p.Cliente, p.Tendencia, want[p.Cliente])
		}
	}
}

func TestLTVComFatorLimitado(t *testing.T) {
	// 6 meses de 100: média 100, fator min(6*1.2, 2) = 2 → 2400
	var rows []SaleRow
	for m := 1; m <= 6; m++ {
		rows = append(rows, sale("ACME", "X", 100, month(m)))
	}

	result := profiles(t, rows, nil)
	if got := result[0].LTV; got != 2400 {
		t.Errorf("LTV = %v, want 2400", got)
	}

	// um único mês: fator 1.2, não o teto
	single := profiles(t, []SaleRow{sale("Beta", "X", 100, month(1))}, nil)
	if got := single[0].LTV; math.Abs(got-1440) > 1e-9 {
		t.Errorf("LTV = %v, want 1440", got)
	}
}

func TestCrossSell(t *testing.T) {
	popularity := []BrandShare{
		{Marca: "A", Percentual: 80},
		{Marca: "B", Percentual: 60},
		{Marca: "C", Percentual: 40},
		{Marca: "D", Percentual: 25},
		{Marca: "E", Percentual: 10},
		{Marca: "F", Percentual: 5},
		{Marca: "X", Percentual: 90},
	}
	rows := []SaleRow{sale("ACME", "X", 100, month(1))}

	result := profiles(t, rows, popularity)
	candidates := result[0].CrossSell

	if len(candidates) != 5 {
		t.Fatalf("candidatos = %d, want 5", len(candidates))
	}
	for _, c := range candidates {
		if c.Marca == "X" {
			t.Error("marca já comprada não pode ser candidata")
		}
	}
	// ordenados por popularidade, com faixa coerente
	if candidates[0].Marca != "A" || candidates[0].Probabilidade != ProbAlta {
		t.Errorf("candidatos[0] = %+v", candidates[0])
	}
	if candidates[3].Marca != "D" || candidates[3].Probabilidade != ProbMedia {
		t.Errorf("candidatos[3] = %+v", candidates[3])
	}
	if candidates[4].Marca != "E" || candidates[4].Probabilidade != ProbBaixa {
		t.Errorf("candidatos[4] = %+v", candidates[4])
	}
}

// Nenhuma divisão pode produzir NaN ou Inf, mesmo com receita zero.
func TestDivisoesComZero(t *testing.T) {
	rows := []SaleRow{
		sale("zerado", "X", 0, month(1)),
		{Cliente: "sem-data", Marca: "Y", Valor: 100},
	}

	result := profiles(t, rows, nil)
	for _, p := range result {
		values := []float64{p.ReceitaTotal, p.MediaMensal, p.CoeficienteVar, p.LTV}
		for _, parcela := range p.Marcas {
			values = append(values, parcela.PercentualReceita)
		}
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("cliente %s produziu NaN/Inf: %+v", p.Cliente, p)
			}
		}
	}
}

func TestPerfisOrdenadosPorCliente(t *testing.T) {
	rows := []SaleRow{
		sale("zeta", "X", 10, month(1)),
		sale("alfa", "X", 10, month(1)),
		sale("beta", "X", 10, month(1)),
	}

	result := profiles(t, rows, nil)
	if len(result) != 3 || result[0].Cliente != "alfa" || result[2].Cliente != "zeta" {
		t.Errorf("ordem dos perfis: %v", []string{result[0].Cliente, result[1].Cliente, result[2].Cliente})
	}
}
