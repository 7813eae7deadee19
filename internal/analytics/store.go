package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PresetStore persiste os presets de filtro.
type PresetStore interface {
	Create(ctx context.Context, p FilterPreset) (FilterPreset, error)
	FindByID(ctx context.Context, id pgtype.UUID) (FilterPreset, error)
	List(ctx context.Context) ([]FilterPreset, error)
	Update(ctx context.Context, p FilterPreset) (FilterPreset, error)
	Delete(ctx context.Context, id pgtype.UUID) error
}

// SalesStore busca as linhas de venda e a popularidade global de marcas. As
// linhas vêm em uma única consulta estreitada pelos filtros; o agrupamento é
// feito em memória pelo Analyzer.
type SalesStore interface {
	FetchSales(ctx context.Context, f Filtros) ([]SaleRow, error)
	BrandPopularity(ctx context.Context) ([]BrandShare, error)
}

type pgPresetStore struct {
	pool *pgxpool.Pool
}

func NewPresetStore(pool *pgxpool.Pool) PresetStore {
	return &pgPresetStore{pool: pool}
}

const presetColumns = `id, name, description, filtros, owner_user_id, created_at`

func (s *pgPresetStore) Create(ctx context.Context, p FilterPreset) (FilterPreset, error) {
	filtrosJSON, err := json.Marshal(p.Filtros)
	if err != nil {
		return FilterPreset{}, fmt.Errorf("erro ao serializar filtros: %w", err)
	}

	id := parser.NewPgUUID()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO filter_presets (id, name, description, filtros, owner_user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+presetColumns,
		id, p.Name, p.Description, filtrosJSON, p.OwnerUserID,
	)
	return scanPreset(row)
}

func (s *pgPresetStore) FindByID(ctx context.Context, id pgtype.UUID) (FilterPreset, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+presetColumns+` FROM filter_presets WHERE id = $1`, id)
	return scanPreset(row)
}

func (s *pgPresetStore) List(ctx context.Context) ([]FilterPreset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+presetColumns+` FROM filter_presets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FilterPreset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *pgPresetStore) Update(ctx context.Context, p FilterPreset) (FilterPreset, error) {
	filtrosJSON, err := json.Marshal(p.Filtros)
	if err != nil {
		return FilterPreset{}, fmt.Errorf("erro ao serializar filtros: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE filter_presets
		SET name = $2, description = $3, filtros = $4
		WHERE id = $1
		RETURNING `+presetColumns,
		p.ID, p.Name, p.Description, filtrosJSON,
	)
	return scanPreset(row)
}

func (s *pgPresetStore) Delete(ctx context.Context, id pgtype.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM filter_presets WHERE id = $1`, id)
	return err
}

func scanPreset(row pgx.Row) (FilterPreset, error) {
	var (
		p           FilterPreset
		description pgtype.Text
		filtrosJSON []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &description, &filtrosJSON, &p.OwnerUserID, &p.CreatedAt); err != nil {
		return FilterPreset{}, err
	}
	p.Description = description.String
	if len(filtrosJSON) > 0 {
		if err := json.Unmarshal(filtrosJSON, &p.Filtros); err != nil {
			return FilterPreset{}, fmt.Errorf("erro ao ler filtros do preset: %w", err)
		}
	}
	return p, nil
}

type pgSalesStore struct {
	pool *pgxpool.Pool
}

func NewSalesStore(pool *pgxpool.Pool) SalesStore {
	return &pgSalesStore{pool: pool}
}

func (s *pgSalesStore) FetchSales(ctx context.Context, f Filtros) ([]SaleRow, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT COALESCE(documento, ''), COALESCE(cliente, ''),
		       COALESCE(marca, ''), COALESCE(grupo, ''),
		       COALESCE(subgrupo, ''), COALESCE(valor, 0), data
		FROM linhas_importadas
		WHERE data IS NOT NULL`)

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Anos) > 0 {
		query.WriteString(` AND EXTRACT(YEAR FROM data) = ANY(` + arg(f.Anos) + `)`)
	}
	if len(f.Meses) > 0 {
		query.WriteString(` AND EXTRACT(MONTH FROM data) = ANY(` + arg(f.Meses) + `)`)
	}
	if len(f.Marcas) > 0 {
		query.WriteString(` AND marca = ANY(` + arg(f.Marcas) + `)`)
	}
	if len(f.Clientes) > 0 {
		query.WriteString(` AND cliente = ANY(` + arg(f.Clientes) + `)`)
	}
	query.WriteString(` ORDER BY cliente, data`)

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []SaleRow
	for rows.Next() {
		var (
			sale SaleRow
			data pgtype.Date
		)
		err := rows.Scan(&sale.Documento, &sale.Cliente, &sale.Marca,
			&sale.Grupo, &sale.Subgrupo, &sale.Valor, &data)
		if err != nil {
			return nil, err
		}
		sale.Data = data.Time
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// BrandPopularity mede, em uma única consulta agregada, o percentual de
// clientes que compram cada marca.
func (s *pgSalesStore) BrandPopularity(ctx context.Context) ([]BrandShare, error) {
	rows, err := s.pool.Query(ctx, `
		WITH universo AS (
			SELECT COUNT(DISTINCT cliente) AS total
			FROM linhas_importadas
			WHERE cliente IS NOT NULL
		)
		SELECT marca,
		       COUNT(DISTINCT cliente) * 100.0 / GREATEST(universo.total, 1)
		FROM linhas_importadas, universo
		WHERE marca IS NOT NULL AND cliente IS NOT NULL
		GROUP BY marca, universo.total
		ORDER BY 2 DESC, marca`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []BrandShare
	for rows.Next() {
		var share BrandShare
		if err := rows.Scan(&share.Marca, &share.Percentual); err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}
