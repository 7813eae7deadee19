package spreadsheet

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("coordinates: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &rows[i]); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseDetectsHeaderRow(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Relatório de Vendas"},
		{},
		{"Documento", "Produto", "Cliente", "Marca", "Valor"},
		{"NF-001", "P-10", "ACME", "X", "100,00"},
		{"NF-001", "P-11", "ACME", "Y", "300,00"},
	})

	result, err := NewParser(zap.NewNop()).Parse(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if result.HeaderRowIndex != 2 {
		t.Errorf("header row index = %d, want 2", result.HeaderRowIndex)
	}
	want := []string{"Documento", "Produto", "Cliente", "Marca", "Valor"}
	if !reflect.DeepEqual(result.Headers, want) {
		t.Errorf("headers = %v, want %v", result.Headers, want)
	}
	if len(result.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(result.Rows))
	}
	if got := result.Rows[0]["Documento"].AsString(); got != "NF-001" {
		t.Errorf("primeira linha Documento = %q", got)
	}
}

func TestParseFailsWithoutHeader(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"relatório"},
		{},
		{"x"},
	})

	_, err := NewParser(zap.NewNop()).Parse(context.Background(), data, nil)
	if err == nil {
		t.Fatal("esperava ParseError para planilha sem cabeçalho")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("erro = %T, want *ParseError", err)
	}
}

func TestParseFailsOnGarbageBytes(t *testing.T) {
	_, err := NewParser(zap.NewNop()).Parse(context.Background(), []byte("not a workbook"), nil)
	if err == nil {
		t.Fatal("esperava ParseError para bytes inválidos")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("erro = %T, want *ParseError", err)
	}
}

func TestParseExcludesTotalsRows(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Documento", "Produto", "Cliente", "Marca", "Valor"},
		{"NF-001", "P-10", "ACME", "X", "15.000,00"},
		{"TOTAL", "", "", "", "15.000,00"},
		{},
		{"NF-002", "P-11", "Beta", "Y", "22.000,00"},
	})

	result, err := NewParser(zap.NewNop()).Parse(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// a linha TOTAL e a linha em branco saem; as duas linhas de dados com
	// valores de magnitude parecida ficam
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	for _, row := range result.Rows {
		if row["Documento"].AsString() == "TOTAL" {
			t.Error("linha de totalização não foi excluída")
		}
	}
}

func TestParseDisambiguatesDuplicateHeaders(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Conta", "Valor", "Valor", "Valor"},
		{"1.01", "10", "20", "30"},
	})

	result, err := NewParser(zap.NewNop()).Parse(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []string{"Conta", "Valor", "Valor_2", "Valor_3"}
	if !reflect.DeepEqual(result.Headers, want) {
		t.Errorf("headers = %v, want %v", result.Headers, want)
	}
	if got := result.Rows[0]["Valor_3"].AsString(); got != "30" {
		t.Errorf("Valor_3 = %q, want 30", got)
	}
}

// Um sufixo gerado não pode colidir com um cabeçalho literal que já usa o
// mesmo nome; nesse caso a sondagem continua até achar um nome livre.
func TestParseDuplicateHeaderSkipsLiteralSuffix(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Valor", "Valor", "Valor_2"},
		{"10", "20", "30"},
	})

	result, err := NewParser(zap.NewNop()).Parse(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []string{"Valor", "Valor_2", "Valor_2_2"}
	if !reflect.DeepEqual(result.Headers, want) {
		t.Errorf("headers = %v, want %v", result.Headers, want)
	}
	// nenhuma coluna sombreia outra no mapa da linha
	if got := result.Rows[0]["Valor_2"].AsString(); got != "20" {
		t.Errorf("Valor_2 = %q, want 20", got)
	}
	if got := result.Rows[0]["Valor_2_2"].AsString(); got != "30" {
		t.Errorf("Valor_2_2 = %q, want 30", got)
	}
}

// Arquivos acima de LargeFileBytes são lidos só até MaxPreviewRows linhas de
// dados, com Truncated marcado para o chamador decidir o que fazer.
func TestParseLargeFileIsBoundedAndMarked(t *testing.T) {
	sheet := [][]any{{"Documento", "Produto", "Valor"}}
	for i := 0; i < 50; i++ {
		sheet = append(sheet, []any{fmt.Sprintf("NF-%03d", i), "P-10", "10,00"})
	}
	data := buildWorkbook(t, sheet)

	p := NewParser(zap.NewNop())
	p.LargeFileBytes = 1
	p.MaxPreviewRows = 10

	result, err := p.Parse(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Rows) != 10 {
		t.Errorf("rows = %d, want 10", len(result.Rows))
	}
	if !result.Truncated {
		t.Error("resultado deveria vir marcado como truncado")
	}
	if got := result.Rows[9]["Documento"].AsString(); got != "NF-009" {
		t.Errorf("última linha lida = %q, want NF-009", got)
	}

	// abaixo do limiar de bytes o arquivo inteiro entra, sem marca
	p.LargeFileBytes = len(data) + 1
	full, err := p.Parse(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(full.Rows) != 50 || full.Truncated {
		t.Errorf("rows = %d, truncated = %v, want 50/false", len(full.Rows), full.Truncated)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Documento", "Produto", "Valor"},
		{"NF-1", "A", "1"},
		{"NF-2", "B", "2"},
		{"NF-3", "C", "3"},
	})

	first, err := NewParser(zap.NewNop()).Parse(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := NewParser(zap.NewNop()).Parse(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !reflect.DeepEqual(first.Headers, second.Headers) {
		t.Error("headers divergem entre execuções")
	}
	if first.HeaderRowIndex != second.HeaderRowIndex {
		t.Error("headerRowIndex diverge entre execuções")
	}
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Error("ordem ou conteúdo das linhas diverge entre execuções")
	}
}

func TestParseProgressIsMonotonic(t *testing.T) {
	rows := [][]any{{"Documento", "Produto", "Valor"}}
	for i := 0; i < 250; i++ {
		rows = append(rows, []any{"NF", "P", "1"})
	}
	data := buildWorkbook(t, rows)

	var reported []int
	_, err := NewParser(zap.NewNop()).Parse(context.Background(), data, func(p int) {
		reported = append(reported, p)
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(reported) == 0 {
		t.Fatal("nenhum progresso emitido")
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] < reported[i-1] {
			t.Fatalf("progresso regrediu: %d depois de %d", reported[i], reported[i-1])
		}
	}
	if last := reported[len(reported)-1]; last != 100 {
		t.Errorf("último progresso = %d, want 100", last)
	}
}

func TestParseCancelledContext(t *testing.T) {
	rows := [][]any{{"Documento", "Produto", "Valor"}}
	for i := 0; i < 500; i++ {
		rows = append(rows, []any{"NF", "P", "1"})
	}
	data := buildWorkbook(t, rows)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(zap.NewNop()).Parse(ctx, data, nil)
	if err == nil {
		t.Fatal("esperava erro de contexto cancelado")
	}
}

func TestTotalsPredicateKeepsDenseRows(t *testing.T) {
	p := NewKeywordTotalsPredicate()

	if p.IsTotalsRow([]string{"TOTAL", "", "", "15.000,00"}) != true {
		t.Error("linha com palavra-chave deveria ser totalização")
	}
	// linha densa com valor alto mas sem palavra-chave é dado normal
	if p.IsTotalsRow([]string{"NF-002", "P-11", "Beta", "Y", "22.000,00"}) {
		t.Error("linha de dados densa foi marcada como totalização")
	}
	// linha rala com valor material sem palavra-chave é subtotal provável
	if !p.IsTotalsRow([]string{"", "", "", "99.000,00"}) {
		t.Error("linha rala com valor material deveria ser totalização")
	}
}
