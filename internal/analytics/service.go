package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/coopvale/backoffice/internal/database"
	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/coopvale/backoffice/pkg/rest"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type Service interface {
	CreatePreset(ctx context.Context, owner pgtype.UUID, input CreatePresetInput) (*PresetOutput, *rest.ApiErr)
	ListPresets(ctx context.Context) ([]PresetOutput, *rest.ApiErr)
	GetPreset(ctx context.Context, presetID pgtype.UUID) (*PresetOutput, *rest.ApiErr)
	UpdatePreset(ctx context.Context, presetID pgtype.UUID, input UpdatePresetInput) (*PresetOutput, *rest.ApiErr)
	DeletePreset(ctx context.Context, presetID pgtype.UUID) *rest.ApiErr

	BehaviorProfiles(ctx context.Context, input QueryInput) ([]ComportamentoCliente, *rest.ApiErr)
	FinancialMetrics(ctx context.Context, input QueryInput) (*MetricasFinanceiras, *rest.ApiErr)
}

type svc struct {
	presets  PresetStore
	sales    SalesStore
	analyzer *Analyzer
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewService(presets PresetStore, sales SalesStore, analyzer *Analyzer, cache Cache, cacheTTL time.Duration, logger *zap.Logger) Service {
	return &svc{
		presets:  presets,
		sales:    sales,
		analyzer: analyzer,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (s *svc) CreatePreset(ctx context.Context, owner pgtype.UUID, input CreatePresetInput) (*PresetOutput, *rest.ApiErr) {
	preset, err := s.presets.Create(ctx, FilterPreset{
		Name:        input.Name,
		Description: input.Description,
		Filtros:     input.Filtros,
		OwnerUserID: owner,
	})
	if err != nil {
		return nil, s.handleDBError(err)
	}
	return toPresetOutput(preset), nil
}

func (s *svc) ListPresets(ctx context.Context) ([]PresetOutput, *rest.ApiErr) {
	presets, err := s.presets.List(ctx)
	if err != nil {
		return nil, s.handleDBError(err)
	}

	result := make([]PresetOutput, 0, len(presets))
	for _, p := range presets {
		result = append(result, *toPresetOutput(p))
	}
	return result, nil
}

func (s *svc) GetPreset(ctx context.Context, presetID pgtype.UUID) (*PresetOutput, *rest.ApiErr) {
	preset, err := s.presets.FindByID(ctx, presetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rest.NewNotFoundError("preset nao encontrado")
		}
		return nil, s.handleDBError(err)
	}
	return toPresetOutput(preset), nil
}

func (s *svc) UpdatePreset(ctx context.Context, presetID pgtype.UUID, input UpdatePresetInput) (*PresetOutput, *rest.ApiErr) {
	preset, err := s.presets.FindByID(ctx, presetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rest.NewNotFoundError("preset nao encontrado")
		}
		return nil, s.handleDBError(err)
	}

	if input.Name != nil {
		preset.Name = *input.Name
	}
	if input.Description != nil {
		preset.Description = *input.Description
	}
	if input.Filtros != nil {
		preset.Filtros = *input.Filtros
	}

	preset, err = s.presets.Update(ctx, preset)
	if err != nil {
		return nil, s.handleDBError(err)
	}
	return toPresetOutput(preset), nil
}

func (s *svc) DeletePreset(ctx context.Context, presetID pgtype.UUID) *rest.ApiErr {
	_, err := s.presets.FindByID(ctx, presetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rest.NewNotFoundError("preset nao encontrado")
		}
		return s.handleDBError(err)
	}

	if err := s.presets.Delete(ctx, presetID); err != nil {
		return s.handleDBError(err)
	}
	return nil
}

func (s *svc) BehaviorProfiles(ctx context.Context, input QueryInput) ([]ComportamentoCliente, *rest.ApiErr) {
	filtros, apiErr := s.resolveFiltros(ctx, input)
	if apiErr != nil {
		return nil, apiErr
	}

	key := cacheKey("behavior", filtros)
	var cached []ComportamentoCliente
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("cache de analytics indisponível", zap.Error(err))
	}

	rows, err := s.sales.FetchSales(ctx, filtros)
	if err != nil {
		return nil, s.handleDBError(err)
	}
	popularity, err := s.sales.BrandPopularity(ctx)
	if err != nil {
		return nil, s.handleDBError(err)
	}

	profiles, err := s.analyzer.BehaviorProfiles(ctx, rows, popularity)
	if err != nil {
		return nil, rest.NewInternalServerError("erro ao agregar comportamento")
	}

	if err := s.cache.Set(ctx, key, profiles, s.cacheTTL); err != nil {
		s.logger.Warn("erro ao gravar cache de analytics", zap.Error(err))
	}
	return profiles, nil
}

func (s *svc) FinancialMetrics(ctx context.Context, input QueryInput) (*MetricasFinanceiras, *rest.ApiErr) {
	filtros, apiErr := s.resolveFiltros(ctx, input)
	if apiErr != nil {
		return nil, apiErr
	}

	key := cacheKey("financial", filtros)
	var cached MetricasFinanceiras
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		s.logger.Warn("cache de analytics indisponível", zap.Error(err))
	}

	rows, err := s.sales.FetchSales(ctx, filtros)
	if err != nil {
		return nil, s.handleDBError(err)
	}

	metrics, err := s.analyzer.FinancialMetrics(ctx, rows)
	if err != nil {
		return nil, rest.NewInternalServerError("erro ao consolidar metricas")
	}

	if err := s.cache.Set(ctx, key, metrics, s.cacheTTL); err != nil {
		s.logger.Warn("erro ao gravar cache de analytics", zap.Error(err))
	}
	return metrics, nil
}

func (s *svc) resolveFiltros(ctx context.Context, input QueryInput) (Filtros, *rest.ApiErr) {
	if input.PresetID == "" {
		return input.Filtros, nil
	}

	id, err := parser.PgUUIDFromString(input.PresetID)
	if err != nil {
		return Filtros{}, rest.NewBadRequestError("id do preset invalido")
	}

	preset, err := s.presets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Filtros{}, rest.NewNotFoundError("preset nao encontrado")
		}
		return Filtros{}, s.handleDBError(err)
	}
	return preset.Filtros, nil
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
