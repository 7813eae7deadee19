package imports

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ImportLog acompanha o ciclo de vida de uma importação: contadores de
// reconciliação e progresso persistidos a cada checkpoint de lote. Truncado
// marca importações de arquivos grandes em que o parse devolveu só o começo
// do arquivo; o relatório expõe a marca para o operador reimportar em partes.
type ImportLog struct {
	ID                     pgtype.UUID
	Arquivo                string
	MappingID              pgtype.UUID
	MappingName            string
	Dominio                string
	TotalLinhas            int
	Truncado               bool
	LinhasProcessadas      int
	Sucesso                int
	Erros                  int
	Duplicados             int
	Novos                  int
	ProdutosNaoEncontrados int
	Progresso              int
	Concluido              bool
	OwnerUserID            pgtype.UUID
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// LinhaImportada é uma linha reconciliada da planilha, com os campos
// canônicos projetados e a chave natural do domínio.
type LinhaImportada struct {
	ID           pgtype.UUID
	ImportID     pgtype.UUID
	ProdutoID    pgtype.UUID
	ChaveNatural string

	Classificacao pgtype.Text
	Conta         pgtype.Text
	Subconta      pgtype.Text
	Documento     pgtype.Text
	Produto       pgtype.Text
	Cliente       pgtype.Text
	Marca         pgtype.Text
	Grupo         pgtype.Text
	Subgrupo      pgtype.Text
	Quantidade    pgtype.Int8
	Valor         pgtype.Float8
	Data          pgtype.Date

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Input DTOs

type StartImportInput struct {
	Arquivo     string
	FileBytes   []byte
	MappingID   string
	MappingName string
	// LogID opcional: retoma uma importação interrompida reaplicando o
	// arquivo de forma idempotente.
	LogID string
}

// Output DTOs

type ImportReport struct {
	TotalLinhas            int  `json:"totalLinhas"`
	Sucesso                int  `json:"sucesso"`
	Erros                  int  `json:"erros"`
	Duplicados             int  `json:"duplicados"`
	Novos                  int  `json:"novos"`
	ProdutosNaoEncontrados int  `json:"produtosNaoEncontrados"`
	Truncado               bool `json:"truncado"`
}

type StartImportOutput struct {
	LogID     pgtype.UUID  `json:"logId"`
	Relatorio ImportReport `json:"relatorio"`
}

type ProgressOutput struct {
	Progresso         int  `json:"progresso"`
	LinhasProcessadas int  `json:"linhasProcessadas"`
	TotalLinhas       int  `json:"totalLinhas"`
	Sucesso           int  `json:"sucesso"`
	Erros             int  `json:"erros"`
	Concluido         bool `json:"concluido"`
}

type ImportLogOutput struct {
	ID                     pgtype.UUID `json:"id"`
	Arquivo                string      `json:"arquivo"`
	MappingName            string      `json:"mapeamento"`
	Dominio                string      `json:"dominio"`
	TotalLinhas            int         `json:"totalLinhas"`
	LinhasProcessadas      int         `json:"linhasProcessadas"`
	Sucesso                int         `json:"sucesso"`
	Erros                  int         `json:"erros"`
	Duplicados             int         `json:"duplicados"`
	Novos                  int         `json:"novos"`
	ProdutosNaoEncontrados int         `json:"produtosNaoEncontrados"`
	Progresso              int         `json:"progresso"`
	Concluido              bool        `json:"concluido"`
	Truncado               bool        `json:"truncado"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

func toImportLogOutput(l ImportLog) *ImportLogOutput {
	return &ImportLogOutput{
		ID:                     l.ID,
		Arquivo:                l.Arquivo,
		MappingName:            l.MappingName,
		Dominio:                l.Dominio,
		TotalLinhas:            l.TotalLinhas,
		LinhasProcessadas:      l.LinhasProcessadas,
		Sucesso:                l.Sucesso,
		Erros:                  l.Erros,
		Duplicados:             l.Duplicados,
		Novos:                  l.Novos,
		ProdutosNaoEncontrados: l.ProdutosNaoEncontrados,
		Progresso:              l.Progresso,
		Concluido:              l.Concluido,
		Truncado:               l.Truncado,
		CreatedAt:              l.CreatedAt,
		UpdatedAt:              l.UpdatedAt,
	}
}

func toProgressOutput(l ImportLog) *ProgressOutput {
	return &ProgressOutput{
		Progresso:         l.Progresso,
		LinhasProcessadas: l.LinhasProcessadas,
		TotalLinhas:       l.TotalLinhas,
		Sucesso:           l.Sucesso,
		Erros:             l.Erros,
		Concluido:         l.Concluido,
	}
}

func toReport(l ImportLog) ImportReport {
	return ImportReport{
		TotalLinhas:            l.TotalLinhas,
		Sucesso:                l.Sucesso,
		Erros:                  l.Erros,
		Duplicados:             l.Duplicados,
		Novos:                  l.Novos,
		ProdutosNaoEncontrados: l.ProdutosNaoEncontrados,
		Truncado:               l.Truncado,
	}
}
