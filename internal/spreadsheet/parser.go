package spreadsheet

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/coopvale/backoffice/pkg/yield"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ProgressFunc recebe o progresso do parse em [0,100]; as emissões são
// monotônicas.
type ProgressFunc func(percent int)

type Parser struct {
	detector HeaderDetector
	totals   TotalsPredicate
	yielder  yield.Yielder
	logger   *zap.Logger

	// Arquivos acima de LargeFileBytes não são materializados por inteiro:
	// o parse devolve no máximo MaxPreviewRows linhas e marca Truncated.
	LargeFileBytes int
	MaxPreviewRows int
}

func NewParser(logger *zap.Logger) *Parser {
	return &Parser{
		detector:       NewMaxFilledDetector(),
		totals:         NewKeywordTotalsPredicate(),
		yielder:        yield.Cooperative(),
		logger:         logger,
		LargeFileBytes: 5 * 1024 * 1024,
		MaxPreviewRows: 3000,
	}
}

// WithDetector troca a heurística de cabeçalho; usado em testes e em
// planilhas com layout conhecido.
func (p *Parser) WithDetector(d HeaderDetector) *Parser {
	p.detector = d
	return p
}

func (p *Parser) WithTotalsPredicate(t TotalsPredicate) *Parser {
	p.totals = t
	return p
}

func (p *Parser) WithYielder(y yield.Yielder) *Parser {
	p.yielder = y
	return p
}

// Parse lê o workbook, detecta o cabeçalho, exclui linhas em branco e de
// totalização e materializa as linhas de dados. Roda como tarefa única com
// pontos de yield periódicos para não monopolizar o processo em arquivos
// grandes.
func (p *Parser) Parse(ctx context.Context, data []byte, onProgress ProgressFunc) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Reason: "erro ao abrir planilha", Err: err}
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, &ParseError{Reason: "planilha vazia"}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &ParseError{Reason: "erro ao ler linhas da planilha", Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Reason: "planilha vazia"}
	}

	progress := newProgressEmitter(onProgress)

	headerIdx, err := p.detectHeader(ctx, rows, progress)
	if err != nil {
		return nil, err
	}

	headers := uniqueHeaders(rows[headerIdx])

	limit := len(rows)
	truncated := false
	if len(data) > p.LargeFileBytes && p.MaxPreviewRows > 0 {
		if headerIdx+1+p.MaxPreviewRows < limit {
			limit = headerIdx + 1 + p.MaxPreviewRows
			truncated = true
			p.logger.Info("arquivo grande, leitura limitada",
				zap.Int("bytes", len(data)),
				zap.Int("linhas", p.MaxPreviewRows),
			)
		}
	}

	result := &ParseResult{
		Headers:        headers,
		HeaderRowIndex: headerIdx,
		Rows:           make([]Row, 0, limit-headerIdx-1),
		Truncated:      truncated,
	}

	dataRows := limit - headerIdx - 1
	every := yield.NewEvery(100, p.yielder)

	for i := headerIdx + 1; i < limit; i++ {
		// yield a cada lote de 100 linhas de dados
		if err := every.Yield(ctx); err != nil {
			return nil, err
		}

		raw := rows[i]
		if isBlankRow(raw) || p.totals.IsTotalsRow(raw) {
			continue
		}

		row := make(Row, len(headers))
		for col, name := range headers {
			var value string
			if col < len(raw) {
				value = strings.TrimSpace(raw[col])
			}
			if value == "" {
				row[name] = EmptyCell()
			} else {
				row[name] = TextCell(value)
			}
		}
		result.Rows = append(result.Rows, row)

		if dataRows > 0 {
			done := i - headerIdx
			progress.emit(10 + done*90/dataRows)
		}
	}

	result.TotalRows = len(result.Rows)
	progress.emit(100)

	return result, nil
}

func (p *Parser) detectHeader(ctx context.Context, rows [][]string, progress *progressEmitter) (int, error) {
	// a detecção varre no máximo as 20 primeiras linhas; yield a cada 5
	every := yield.NewEvery(5, p.yielder)
	scan := 20
	if scan > len(rows) {
		scan = len(rows)
	}
	for i := 0; i < scan; i++ {
		if err := every.Yield(ctx); err != nil {
			return 0, err
		}
		progress.emit(i * 10 / scan)
	}

	idx, err := p.detector.Detect(rows)
	if err != nil {
		return 0, err
	}
	progress.emit(10)
	return idx, nil
}

// uniqueHeaders normaliza os nomes e desambigua duplicatas com sufixo _2,
// _3… na ordem de aparição. O nome gerado também entra no registro, para não
// colidir com um cabeçalho literal igual ao sufixado.
func uniqueHeaders(raw []string) []string {
	headers := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, cell := range raw {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("coluna_%d", i+1)
		}
		base := name
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = true
		headers = append(headers, name)
	}
	return headers
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// progressEmitter garante progresso monotônico não decrescente em [0,100].
type progressEmitter struct {
	fn   ProgressFunc
	last int
}

func newProgressEmitter(fn ProgressFunc) *progressEmitter {
	return &progressEmitter{fn: fn, last: -1}
}

func (e *progressEmitter) emit(percent int) {
	if e.fn == nil {
		return
	}
	if percent > 100 {
		percent = 100
	}
	if percent <= e.last {
		return
	}
	e.last = percent
	e.fn(percent)
}
