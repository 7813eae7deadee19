package audit

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Tipos de problema reportados pela auditoria.
const (
	ProblemDuplicado = "duplicado"
	ProblemOrfao     = "orfao"
	ProblemContagem  = "contagem_divergente"
)

// Scope delimita a auditoria: uma importação específica, ou todas a partir de
// uma data. Zero value audita tudo.
type Scope struct {
	ImportID pgtype.UUID
	Since    time.Time
}

// ProblemReport descreve uma anomalia encontrada em uma importação. A
// auditoria nunca corrige nada; o relatório serve de insumo para limpeza
// manual ou script separado.
type ProblemReport struct {
	Tipo         string        `json:"tipo"`
	ImportID     pgtype.UUID   `json:"importId"`
	Arquivo      string        `json:"arquivo"`
	ChaveNatural string        `json:"chaveNatural,omitempty"`
	Ocorrencias  int           `json:"ocorrencias,omitempty"`
	LinhaIDs     []pgtype.UUID `json:"linhaIds,omitempty"`
	CriadasEm    []time.Time   `json:"criadasEm,omitempty"`
	Esperado     int           `json:"esperado,omitempty"`
	Encontrado   int           `json:"encontrado,omitempty"`
}

// RowStub é a projeção mínima de uma linha importada usada pela auditoria.
type RowStub struct {
	ID           pgtype.UUID
	ChaveNatural string
	CreatedAt    time.Time
}

// Output DTOs

type AuditOutput struct {
	Problemas            []ProblemReport `json:"problemas"`
	ImportacoesAvaliadas int             `json:"importacoesAvaliadas"`
}
