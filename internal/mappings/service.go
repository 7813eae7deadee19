package mappings

import (
	"context"
	"errors"
	"fmt"

	"github.com/coopvale/backoffice/internal/database"
	"github.com/coopvale/backoffice/pkg/rest"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type Service interface {
	CreateMapping(ctx context.Context, createdBy pgtype.UUID, input CreateMappingInput) (*MappingOutput, *rest.ApiErr)
	ListMappings(ctx context.Context) ([]MappingOutput, *rest.ApiErr)
	GetMapping(ctx context.Context, mappingID pgtype.UUID) (*MappingOutput, *rest.ApiErr)
	UpdateMapping(ctx context.Context, mappingID pgtype.UUID, input UpdateMappingInput) (*MappingOutput, *rest.ApiErr)
	DeleteMapping(ctx context.Context, mappingID pgtype.UUID) *rest.ApiErr
}

type svc struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) Service {
	return &svc{store: store, logger: logger}
}

func (s *svc) CreateMapping(ctx context.Context, createdBy pgtype.UUID, input CreateMappingInput) (*MappingOutput, *rest.ApiErr) {
	if apiErr := validateMapping(input.Dominio, input.Columns, input.Filters); apiErr != nil {
		return nil, apiErr
	}

	mapping, err := s.store.Create(ctx, ColumnMapping{
		Name:        input.Name,
		Description: input.Description,
		Dominio:     input.Dominio,
		Columns:     input.Columns,
		Filters:     input.Filters,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return nil, s.handleDBError(err)
	}

	s.logger.Info("mapeamento criado", zap.String("nome", mapping.Name), zap.String("dominio", mapping.Dominio))
	return toMappingOutput(mapping), nil
}

func (s *svc) ListMappings(ctx context.Context) ([]MappingOutput, *rest.ApiErr) {
	mappings, err := s.store.List(ctx)
	if err != nil {
		return nil, s.handleDBError(err)
	}

	result := make([]MappingOutput, 0, len(mappings))
	for _, m := range mappings {
		result = append(result, *toMappingOutput(m))
	}
	return result, nil
}

func (s *svc) GetMapping(ctx context.Context, mappingID pgtype.UUID) (*MappingOutput, *rest.ApiErr) {
	mapping, err := s.store.FindByID(ctx, mappingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rest.NewNotFoundError("mapeamento nao encontrado")
		}
		return nil, s.handleDBError(err)
	}
	return toMappingOutput(mapping), nil
}

func (s *svc) UpdateMapping(ctx context.Context, mappingID pgtype.UUID, input UpdateMappingInput) (*MappingOutput, *rest.ApiErr) {
	mapping, err := s.store.FindByID(ctx, mappingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rest.NewNotFoundError("mapeamento nao encontrado")
		}
		return nil, s.handleDBError(err)
	}

	if input.Name != nil {
		mapping.Name = *input.Name
	}
	if input.Description != nil {
		mapping.Description = *input.Description
	}
	if input.Dominio != nil {
		mapping.Dominio = *input.Dominio
	}
	if input.Columns != nil {
		mapping.Columns = input.Columns
	}
	if input.Filters != nil {
		mapping.Filters = input.Filters
	}

	if apiErr := validateMapping(mapping.Dominio, mapping.Columns, mapping.Filters); apiErr != nil {
		return nil, apiErr
	}

	mapping, err = s.store.Update(ctx, mapping)
	if err != nil {
		return nil, s.handleDBError(err)
	}
	return toMappingOutput(mapping), nil
}

func (s *svc) DeleteMapping(ctx context.Context, mappingID pgtype.UUID) *rest.ApiErr {
	_, err := s.store.FindByID(ctx, mappingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rest.NewNotFoundError("mapeamento nao encontrado")
		}
		return s.handleDBError(err)
	}

	if err := s.store.Delete(ctx, mappingID); err != nil {
		return s.handleDBError(err)
	}
	return nil
}

// validateMapping garante domínio conhecido, campos canônicos válidos e
// condições de filtro suportadas.
func validateMapping(dominio string, columns map[string]string, filters []RowFilter) *rest.ApiErr {
	if NaturalKeyFields(dominio) == nil {
		return rest.NewBadRequestError("dominio invalido")
	}
	if len(columns) == 0 {
		return rest.NewBadRequestError("mapeamento precisa de ao menos uma coluna")
	}
	for canonical := range columns {
		if !IsCanonicalField(canonical) {
			return rest.NewBadRequestError(fmt.Sprintf("campo canonico desconhecido: %s", canonical))
		}
	}
	for _, f := range filters {
		if f.Column == "" {
			return rest.NewBadRequestError("filtro sem coluna")
		}
		if !ValidCondition(f.Condition) {
			return rest.NewBadRequestError(fmt.Sprintf("condicao de filtro invalida: %s", f.Condition))
		}
	}
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
