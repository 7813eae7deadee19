package spreadsheet

import (
	"fmt"
	"time"
)

// DataType é o tipo canônico declarado para uma coluna; a coerção nunca
// falha, células impossíveis viram célula vazia.
type DataType string

const (
	TypeText     DataType = "text"
	TypeInteger  DataType = "integer"
	TypeDecimal  DataType = "decimal"
	TypeCurrency DataType = "currency"
	TypeDate     DataType = "date"
)

type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindInteger
	KindDecimal
	KindDate
)

// Cell é a soma explícita de valores possíveis de uma célula; substitui o
// objeto dinâmico indexado por string do sistema original.
type Cell struct {
	Kind    CellKind
	Text    string
	Integer int64
	Decimal float64
	Date    time.Time
}

func EmptyCell() Cell {
	return Cell{Kind: KindEmpty}
}

func TextCell(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

func IntegerCell(v int64) Cell {
	return Cell{Kind: KindInteger, Integer: v}
}

func DecimalCell(v float64) Cell {
	return Cell{Kind: KindDecimal, Decimal: v}
}

func DateCell(t time.Time) Cell {
	return Cell{Kind: KindDate, Date: t}
}

func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty
}

// AsString devolve a representação textual crua da célula, sem formatação
// de preview.
func (c Cell) AsString() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindInteger:
		return fmt.Sprintf("%d", c.Integer)
	case KindDecimal:
		return fmt.Sprintf("%v", c.Decimal)
	case KindDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}

// AsFloat devolve o valor numérico da célula quando houver um.
func (c Cell) AsFloat() (float64, bool) {
	switch c.Kind {
	case KindInteger:
		return float64(c.Integer), true
	case KindDecimal:
		return c.Decimal, true
	default:
		return 0, false
	}
}

// Row é uma linha materializada, indexada pelo nome único de cabeçalho.
type Row map[string]Cell

// ParseResult é o contrato de saída do parser (§ preview e importação).
type ParseResult struct {
	Headers        []string `json:"headers"`
	HeaderRowIndex int      `json:"headerRowIndex"`
	Rows           []Row    `json:"rows"`
	TotalRows      int      `json:"totalRows"`
	Truncated      bool     `json:"truncated"`
}

// ParseError é o único erro fatal do pipeline de importação: arquivo
// ilegível ou sem cabeçalho detectável.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
