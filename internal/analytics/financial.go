package analytics

import (
	"context"
	"sort"
)

// FinancialMetrics consolida o universo filtrado: receita total e por mês,
// ticket médio por documento e os maiores clientes e marcas com participação
// percentual.
func (a *Analyzer) FinancialMetrics(ctx context.Context, rows []SaleRow) (*MetricasFinanceiras, error) {
	var receitaTotal float64
	porMes := make(map[string]float64)
	porCliente := make(map[string]float64)
	porMarca := make(map[string]float64)
	documentos := make(map[string]struct{})

	for i, row := range rows {
		if i%a.RowBatch == 0 {
			if err := a.yielder.Yield(ctx); err != nil {
				return nil, err
			}
		}

		receitaTotal += row.Valor
		if !row.Data.IsZero() {
			porMes[row.Data.Format("2006-01")] += row.Valor
		}
		if row.Cliente != "" {
			porCliente[row.Cliente] += row.Valor
		}
		if row.Marca != "" {
			porMarca[row.Marca] += row.Valor
		}
		if row.Documento != "" {
			documentos[row.Documento] = struct{}{}
		}
	}

	meses := make([]MesReceita, 0, len(porMes))
	for mes, receita := range porMes {
		meses = append(meses, MesReceita{Mes: mes, Receita: receita})
	}
	sort.Slice(meses, func(i, j int) bool { return meses[i].Mes < meses[j].Mes })

	return &MetricasFinanceiras{
		ReceitaTotal: receitaTotal,
		PorMes:       meses,
		TicketMedio:  safeDiv(receitaTotal, float64(len(documentos))),
		TopClientes:  topN(toParcelas(porCliente, receitaTotal), 10),
		TopMarcas:    topN(toParcelas(porMarca, receitaTotal), 10),
	}, nil
}

func topN(parcelas []ParcelaReceita, n int) []ParcelaReceita {
	if len(parcelas) > n {
		return parcelas[:n]
	}
	return parcelas
}
