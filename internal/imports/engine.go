package imports

import (
	"context"
	"errors"
	"strings"

	"github.com/coopvale/backoffice/internal/mappings"
	"github.com/coopvale/backoffice/internal/spreadsheet"
	"github.com/coopvale/backoffice/pkg/yield"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// Engine reconcilia as linhas de uma planilha com o banco: projeta o
// mapeamento, aplica filtros, coage tipos, resolve produtos e grava por
// upsert na chave natural. Processa na ordem do arquivo; em chaves repetidas
// dentro do mesmo arquivo a última ocorrência prevalece.
type Engine struct {
	store    Store
	produtos ProdutoStore
	yielder  yield.Yielder
	logger   *zap.Logger

	// BatchSize controla o checkpoint de progresso no log.
	BatchSize int
}

func NewEngine(store Store, produtos ProdutoStore, logger *zap.Logger) *Engine {
	return &Engine{
		store:     store,
		produtos:  produtos,
		yielder:   yield.Cooperative(),
		logger:    logger,
		BatchSize: 200,
	}
}

func (e *Engine) WithYielder(y yield.Yielder) *Engine {
	e.yielder = y
	return e
}

// Run processa as linhas já materializadas contra o log dado e devolve o log
// com os contadores finais. Um log retomado (LinhasProcessadas > 0) re-executa
// as primeiras linhas de forma idempotente sem recontá-las.
//
// Falhas por linha incrementam Erros e o lote continua; o processamento só
// aborta quando o contexto cai (conexão perdida, shutdown), preservando o
// último checkpoint gravado.
func (e *Engine) Run(ctx context.Context, log ImportLog, mapping mappings.ColumnMapping, rows []spreadsheet.Row) (ImportLog, error) {
	resumeFrom := log.LinhasProcessadas
	log.TotalLinhas = len(rows)
	log.Concluido = false

	produtoCache := make(map[string]pgtype.UUID)

	for i, raw := range rows {
		if err := e.yielder.Yield(ctx); err != nil {
			e.checkpoint(ctx, &log)
			return log, err
		}

		counted := i >= resumeFrom

		if !mapping.ApplyFilters(raw) {
			// linha filtrada sai em silêncio, mas conta para o progresso
			e.advance(ctx, &log, i, counted)
			continue
		}

		linha := e.project(raw, mapping)
		linha.ImportID = log.ID
		linha.ChaveNatural = naturalKey(mapping.Dominio, linha)

		if codigo := linha.Produto.String; linha.Produto.Valid && codigo != "" {
			id, found, err := e.resolveProduto(ctx, produtoCache, codigo)
			if err != nil {
				if ctx.Err() != nil {
					e.checkpoint(ctx, &log)
					return log, err
				}
				if counted {
					log.Erros++
				}
				e.advance(ctx, &log, i, counted)
				continue
			}
			if found {
				linha.ProdutoID = id
			} else if counted {
				log.ProdutosNaoEncontrados++
			}
		}

		created, err := e.store.UpsertRow(ctx, linha)
		if err != nil {
			if ctx.Err() != nil {
				e.checkpoint(ctx, &log)
				return log, err
			}
			e.logger.Warn("erro ao gravar linha importada",
				zap.String("chave", linha.ChaveNatural),
				zap.Error(err),
			)
			if counted {
				log.Erros++
			}
			e.advance(ctx, &log, i, counted)
			continue
		}

		if counted {
			log.Sucesso++
			if created {
				log.Novos++
			} else {
				log.Duplicados++
			}
		}
		e.advance(ctx, &log, i, counted)
	}

	log.LinhasProcessadas = len(rows)
	log.Progresso = 100
	log.Concluido = true
	e.checkpoint(ctx, &log)

	return log, nil
}

// advance atualiza progresso e grava um checkpoint ao fim de cada lote.
func (e *Engine) advance(ctx context.Context, log *ImportLog, index int, counted bool) {
	processed := index + 1
	if processed <= log.LinhasProcessadas {
		return
	}
	log.LinhasProcessadas = processed

	if log.TotalLinhas > 0 {
		if p := processed * 100 / log.TotalLinhas; p > log.Progresso {
			log.Progresso = p
		}
	}

	if counted && processed%e.BatchSize == 0 {
		e.checkpoint(ctx, log)
	}
}

func (e *Engine) checkpoint(ctx context.Context, log *ImportLog) {
	if err := e.store.Checkpoint(ctx, *log); err != nil {
		e.logger.Warn("erro ao gravar checkpoint da importação",
			zap.Int("linhas", log.LinhasProcessadas),
			zap.Error(err),
		)
	}
}

func (e *Engine) resolveProduto(ctx context.Context, cache map[string]pgtype.UUID, codigo string) (pgtype.UUID, bool, error) {
	if id, ok := cache[codigo]; ok {
		return id, id.Valid, nil
	}

	id, err := e.produtos.FindIDByCodigo(ctx, codigo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			cache[codigo] = pgtype.UUID{}
			return pgtype.UUID{}, false, nil
		}
		return pgtype.UUID{}, false, err
	}

	cache[codigo] = id
	return id, true, nil
}

// project coage cada campo canônico mapeado a partir da célula de origem.
func (e *Engine) project(raw spreadsheet.Row, mapping mappings.ColumnMapping) LinhaImportada {
	var linha LinhaImportada

	for canonical, source := range mapping.Columns {
		dataType, ok := mappings.CanonicalFields[canonical]
		if !ok {
			continue
		}
		cell := spreadsheet.Coerce(raw[source].AsString(), dataType)
		setCanonical(&linha, canonical, cell)
	}
	return linha
}

func setCanonical(linha *LinhaImportada, canonical string, cell spreadsheet.Cell) {
	switch canonical {
	case "classificacao":
		linha.Classificacao = textValue(cell)
	case "conta":
		linha.Conta = textValue(cell)
	case "subconta":
		linha.Subconta = textValue(cell)
	case "documento":
		linha.Documento = textValue(cell)
	case "produto":
		linha.Produto = textValue(cell)
	case "cliente":
		linha.Cliente = textValue(cell)
	case "marca":
		linha.Marca = textValue(cell)
	case "grupo":
		linha.Grupo = textValue(cell)
	case "subgrupo":
		linha.Subgrupo = textValue(cell)
	case "quantidade":
		if cell.Kind == spreadsheet.KindInteger {
			linha.Quantidade = pgtype.Int8{Int64: cell.Integer, Valid: true}
		}
	case "valor":
		if v, ok := cell.AsFloat(); ok {
			linha.Valor = pgtype.Float8{Float64: v, Valid: true}
		}
	case "data":
		if cell.Kind == spreadsheet.KindDate {
			linha.Data = pgtype.Date{Time: cell.Date, Valid: true}
		}
	}
}

func textValue(cell spreadsheet.Cell) pgtype.Text {
	if cell.IsEmpty() {
		return pgtype.Text{}
	}
	return pgtype.Text{String: cell.AsString(), Valid: true}
}

// naturalKey monta a chave do domínio juntando os campos na ordem declarada.
// Campo ausente entra como vazio, preservando a posição.
func naturalKey(dominio string, linha LinhaImportada) string {
	fields := mappings.NaturalKeyFields(dominio)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, canonicalText(linha, f))
	}
	return strings.Join(parts, "|")
}

func canonicalText(linha LinhaImportada, canonical string) string {
	switch canonical {
	case "classificacao":
		return linha.Classificacao.String
	case "conta":
		return linha.Conta.String
	case "subconta":
		return linha.Subconta.String
	case "documento":
		return linha.Documento.String
	case "produto":
		return linha.Produto.String
	}
	return ""
}
