package spreadsheet

import (
	"strings"
)

// HeaderDetector localiza a linha de cabeçalho dentro das primeiras linhas
// da planilha. Estratégia plugável: a heurística padrão pode ser trocada em
// testes ou para planilhas fora do padrão.
type HeaderDetector interface {
	Detect(rows [][]string) (int, error)
}

// MaxFilledDetector escolhe, dentro da janela de varredura, a linha com o
// maior número de células não vazias; empate fica com a primeira.
type MaxFilledDetector struct {
	ScanRows int // janela de varredura; padrão 20
}

func NewMaxFilledDetector() *MaxFilledDetector {
	return &MaxFilledDetector{ScanRows: 20}
}

func (d *MaxFilledDetector) Detect(rows [][]string) (int, error) {
	scan := d.ScanRows
	if scan <= 0 {
		scan = 20
	}
	if scan > len(rows) {
		scan = len(rows)
	}

	bestIdx, bestCount := -1, 0
	for i := 0; i < scan; i++ {
		count := 0
		for _, cell := range rows[i] {
			if strings.TrimSpace(cell) != "" {
				count++
			}
		}
		if count > bestCount {
			bestIdx, bestCount = i, count
		}
	}

	// cabeçalho de uma célula só não é cabeçalho; é título de relatório
	if bestIdx < 0 || bestCount < 2 {
		return 0, &ParseError{Reason: "nenhuma linha de cabeçalho detectada"}
	}
	return bestIdx, nil
}

// TotalsPredicate decide se uma linha é uma linha de totalização e deve ser
// excluída da importação. A heurística é intencionalmente conservadora e os
// parâmetros são configuráveis (palavras-chave e limite de materialidade).
type TotalsPredicate interface {
	IsTotalsRow(cells []string) bool
}

type KeywordTotalsPredicate struct {
	Keywords    []string
	Materiality float64 // valor acima do qual poucas células preenchidas indicam subtotal
	MaxFilled   int     // "poucas células" = até este limite
}

func NewKeywordTotalsPredicate() *KeywordTotalsPredicate {
	return &KeywordTotalsPredicate{
		Keywords:    []string{"total", "totais", "subtotal", "soma", "totalização", "totalizacao", "total geral"},
		Materiality: 10000,
		MaxFilled:   3,
	}
}

func (p *KeywordTotalsPredicate) IsTotalsRow(cells []string) bool {
	filled := 0
	hasMaterialValue := false
	hasKeyword := false

	for _, raw := range cells {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		filled++

		lower := strings.ToLower(value)
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				hasKeyword = true
				break
			}
		}

		if cell := coerceDecimal(value); !cell.IsEmpty() {
			if v, _ := cell.AsFloat(); v > p.Materiality {
				hasMaterialValue = true
			}
		}
	}

	if filled == 0 {
		return false
	}
	if hasKeyword {
		return true
	}
	return filled <= p.MaxFilled && hasMaterialValue
}
