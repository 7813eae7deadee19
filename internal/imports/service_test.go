package imports

import (
	"context"
	"fmt"
	"testing"

	"github.com/coopvale/backoffice/internal/mappings"
	"github.com/coopvale/backoffice/internal/spreadsheet"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type mockMappingStore struct {
	byName map[string]mappings.ColumnMapping
}

func (m *mockMappingStore) Create(ctx context.Context, cm mappings.ColumnMapping) (mappings.ColumnMapping, error) {
	return cm, nil
}

func (m *mockMappingStore) FindByID(ctx context.Context, id pgtype.UUID) (mappings.ColumnMapping, error) {
	return mappings.ColumnMapping{}, pgx.ErrNoRows
}

func (m *mockMappingStore) FindByName(ctx context.Context, name string) (mappings.ColumnMapping, error) {
	if cm, ok := m.byName[name]; ok {
		return cm, nil
	}
	return mappings.ColumnMapping{}, pgx.ErrNoRows
}

func (m *mockMappingStore) List(ctx context.Context) ([]mappings.ColumnMapping, error) {
	return nil, nil
}

func (m *mockMappingStore) Update(ctx context.Context, cm mappings.ColumnMapping) (mappings.ColumnMapping, error) {
	return cm, nil
}

func (m *mockMappingStore) Delete(ctx context.Context, id pgtype.UUID) error {
	return nil
}

func buildVendasWorkbook(t *testing.T, dataRows int) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"Documento", "Produto", "Cliente", "Valor"}); err != nil {
		t.Fatalf("set header: %v", err)
	}
	for i := 0; i < dataRows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("coordinates: %v", err)
		}
		row := []any{fmt.Sprintf("NF-%03d", i), "P-10", "ACME", "10,00"}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func newTestService(store *mockStore, sheet *spreadsheet.Parser) Service {
	produtos := &mockProdutos{known: map[string]pgtype.UUID{"P-10": produtoID(1)}}
	mapStore := &mockMappingStore{byName: map[string]mappings.ColumnMapping{"vendas": vendasMapping()}}
	engine := NewEngine(store, produtos, zap.NewNop())
	return NewService(store, mapStore, engine, sheet, zap.NewNop())
}

// Arquivo acima do limiar de bytes entra com leitura limitada; o relatório e
// o log devolvidos carregam a marca de importação parcial em vez de fingir
// uma importação completa.
func TestStartImportLargeFileReportsTruncation(t *testing.T) {
	data := buildVendasWorkbook(t, 8)

	sheet := spreadsheet.NewParser(zap.NewNop())
	sheet.LargeFileBytes = 1
	sheet.MaxPreviewRows = 3

	store := newMockStore()
	service := newTestService(store, sheet)

	result, apiErr := service.StartImport(context.Background(), produtoID(9), StartImportInput{
		Arquivo:     "vendas_grandes.xlsx",
		FileBytes:   data,
		MappingName: "vendas",
	})
	if apiErr != nil {
		t.Fatalf("StartImport: %v", apiErr)
	}

	if !result.Relatorio.Truncado {
		t.Error("relatório deveria marcar a importação como truncada")
	}
	if result.Relatorio.TotalLinhas != 3 || result.Relatorio.Sucesso != 3 {
		t.Errorf("relatório = total %d, sucesso %d, want 3/3",
			result.Relatorio.TotalLinhas, result.Relatorio.Sucesso)
	}
	if len(store.rows) != 3 {
		t.Errorf("linhas persistidas = %d, want 3", len(store.rows))
	}

	// a marca sobrevive aos checkpoints, então GET /imports também a mostra
	final := store.checkpoints[len(store.checkpoints)-1]
	if !final.Truncado {
		t.Error("checkpoint final deveria preservar a marca de truncamento")
	}
}

func TestStartImportSmallFileIsNotTruncated(t *testing.T) {
	data := buildVendasWorkbook(t, 8)

	sheet := spreadsheet.NewParser(zap.NewNop())

	store := newMockStore()
	service := newTestService(store, sheet)

	result, apiErr := service.StartImport(context.Background(), produtoID(9), StartImportInput{
		Arquivo:     "vendas.xlsx",
		FileBytes:   data,
		MappingName: "vendas",
	})
	if apiErr != nil {
		t.Fatalf("StartImport: %v", apiErr)
	}

	if result.Relatorio.Truncado {
		t.Error("arquivo pequeno não deveria vir truncado")
	}
	if result.Relatorio.TotalLinhas != 8 || len(store.rows) != 8 {
		t.Errorf("total = %d, persistidas = %d, want 8/8",
			result.Relatorio.TotalLinhas, len(store.rows))
	}
}
