package imports

import (
	"context"
	"errors"

	"github.com/coopvale/backoffice/internal/database"
	"github.com/coopvale/backoffice/internal/mappings"
	"github.com/coopvale/backoffice/internal/spreadsheet"
	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/coopvale/backoffice/pkg/rest"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type Service interface {
	StartImport(ctx context.Context, owner pgtype.UUID, input StartImportInput) (*StartImportOutput, *rest.ApiErr)
	GetProgress(ctx context.Context, logID pgtype.UUID) (*ProgressOutput, *rest.ApiErr)
	ListImports(ctx context.Context) ([]ImportLogOutput, *rest.ApiErr)
	DeleteImport(ctx context.Context, logID pgtype.UUID) *rest.ApiErr
}

type svc struct {
	store       Store
	mappings    mappings.Store
	engine      *Engine
	spreadsheet *spreadsheet.Parser
	logger      *zap.Logger
}

func NewService(store Store, mappingStore mappings.Store, engine *Engine, sheet *spreadsheet.Parser, logger *zap.Logger) Service {
	return &svc{
		store:       store,
		mappings:    mappingStore,
		engine:      engine,
		spreadsheet: sheet,
		logger:      logger,
	}
}

// StartImport parseia o arquivo e roda a reconciliação até o fim dentro da
// própria requisição. O progresso vai sendo gravado em checkpoints, então
// GET /imports/:id/progress de outra sessão enxerga o andamento.
func (s *svc) StartImport(ctx context.Context, owner pgtype.UUID, input StartImportInput) (*StartImportOutput, *rest.ApiErr) {
	mapping, apiErr := s.resolveMapping(ctx, input)
	if apiErr != nil {
		return nil, apiErr
	}
	if len(mapping.Columns) == 0 {
		return nil, rest.NewBadRequestError("mapeamento sem colunas")
	}

	result, err := s.spreadsheet.Parse(ctx, input.FileBytes, nil)
	if err != nil {
		var parseErr *spreadsheet.ParseError
		if errors.As(err, &parseErr) {
			return nil, rest.NewUnprocessableEntity(parseErr.Reason)
		}
		return nil, rest.NewInternalServerError("erro ao ler planilha")
	}

	log, apiErr := s.openLog(ctx, owner, input, mapping, result)
	if apiErr != nil {
		return nil, apiErr
	}

	if log.Truncado {
		s.logger.Warn("arquivo grande, leitura limitada; importação parcial",
			zap.String("arquivo", log.Arquivo),
			zap.Int("linhasLidas", len(result.Rows)),
		)
	}

	s.logger.Info("importação iniciada",
		zap.String("arquivo", log.Arquivo),
		zap.String("mapeamento", mapping.Name),
		zap.Int("linhas", len(result.Rows)),
		zap.Int("retomadaEm", log.LinhasProcessadas),
	)

	log, err = s.engine.Run(ctx, log, mapping, result.Rows)
	if err != nil {
		s.logger.Error("importação interrompida",
			zap.String("arquivo", log.Arquivo),
			zap.Int("linhasProcessadas", log.LinhasProcessadas),
			zap.Error(err),
		)
		return nil, rest.NewInternalServerError("importacao interrompida; o progresso gravado permite retomar")
	}

	s.logger.Info("importação concluída",
		zap.String("arquivo", log.Arquivo),
		zap.Int("novos", log.Novos),
		zap.Int("duplicados", log.Duplicados),
		zap.Int("erros", log.Erros),
	)

	return &StartImportOutput{LogID: log.ID, Relatorio: toReport(log)}, nil
}

func (s *svc) resolveMapping(ctx context.Context, input StartImportInput) (mappings.ColumnMapping, *rest.ApiErr) {
	var (
		mapping mappings.ColumnMapping
		err     error
	)
	switch {
	case input.MappingID != "":
		var id pgtype.UUID
		id, err = parser.PgUUIDFromString(input.MappingID)
		if err != nil {
			return mapping, rest.NewBadRequestError("id do mapeamento invalido")
		}
		mapping, err = s.mappings.FindByID(ctx, id)
	case input.MappingName != "":
		mapping, err = s.mappings.FindByName(ctx, input.MappingName)
	default:
		return mapping, rest.NewBadRequestError("mapeamento e obrigatorio")
	}

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mapping, rest.NewNotFoundError("mapeamento nao encontrado")
		}
		return mapping, s.handleDBError(err)
	}
	return mapping, nil
}

func (s *svc) openLog(ctx context.Context, owner pgtype.UUID, input StartImportInput, mapping mappings.ColumnMapping, parsed *spreadsheet.ParseResult) (ImportLog, *rest.ApiErr) {
	if input.LogID != "" {
		id, err := parser.PgUUIDFromString(input.LogID)
		if err != nil {
			return ImportLog{}, rest.NewBadRequestError("id do log invalido")
		}
		log, err := s.store.FindLogByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ImportLog{}, rest.NewNotFoundError("log de importacao nao encontrado")
			}
			return ImportLog{}, s.handleDBError(err)
		}
		if log.Concluido {
			return ImportLog{}, rest.NewBadRequestError("importacao ja concluida")
		}
		if parsed.Truncated {
			log.Truncado = true
		}
		return log, nil
	}

	log, err := s.store.CreateLog(ctx, ImportLog{
		Arquivo:     input.Arquivo,
		MappingID:   mapping.ID,
		MappingName: mapping.Name,
		Dominio:     mapping.Dominio,
		TotalLinhas: len(parsed.Rows),
		Truncado:    parsed.Truncated,
		OwnerUserID: owner,
	})
	if err != nil {
		return ImportLog{}, s.handleDBError(err)
	}
	return log, nil
}

func (s *svc) GetProgress(ctx context.Context, logID pgtype.UUID) (*ProgressOutput, *rest.ApiErr) {
	log, err := s.store.FindLogByID(ctx, logID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rest.NewNotFoundError("log de importacao nao encontrado")
		}
		return nil, s.handleDBError(err)
	}
	return toProgressOutput(log), nil
}

func (s *svc) ListImports(ctx context.Context) ([]ImportLogOutput, *rest.ApiErr) {
	logs, err := s.store.ListLogs(ctx)
	if err != nil {
		return nil, s.handleDBError(err)
	}

	result := make([]ImportLogOutput, 0, len(logs))
	for _, l := range logs {
		result = append(result, *toImportLogOutput(l))
	}
	return result, nil
}

func (s *svc) DeleteImport(ctx context.Context, logID pgtype.UUID) *rest.ApiErr {
	log, err := s.store.FindLogByID(ctx, logID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rest.NewNotFoundError("log de importacao nao encontrado")
		}
		return s.handleDBError(err)
	}

	if err := s.store.DeleteLog(ctx, log.ID); err != nil {
		return s.handleDBError(err)
	}

	s.logger.Info("importação removida",
		zap.String("arquivo", log.Arquivo),
		zap.Int("linhas", log.TotalLinhas),
	)
	return nil
}

func (s *svc) handleDBError(err error) *rest.ApiErr {
	if errors.Is(err, pgx.ErrNoRows) {
		return rest.NewNotFoundError("recurso nao encontrado")
	}
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return database.GetError(pgErr, pgErr.ConstraintName)
	}
	return rest.NewInternalServerError("erro interno do servidor")
}
