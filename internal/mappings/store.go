package mappings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persiste mapeamentos de colunas. Interface estreita para permitir
// mocks nos testes do service.
type Store interface {
	Create(ctx context.Context, m ColumnMapping) (ColumnMapping, error)
	FindByID(ctx context.Context, id pgtype.UUID) (ColumnMapping, error)
	FindByName(ctx context.Context, name string) (ColumnMapping, error)
	List(ctx context.Context) ([]ColumnMapping, error)
	Update(ctx context.Context, m ColumnMapping) (ColumnMapping, error)
	Delete(ctx context.Context, id pgtype.UUID) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const mappingColumns = `id, name, description, dominio, columns, filters, created_by, created_at`

func (s *pgStore) Create(ctx context.Context, m ColumnMapping) (ColumnMapping, error) {
	columnsJSON, filtersJSON, err := marshalMapping(m)
	if err != nil {
		return ColumnMapping{}, err
	}

	id := parser.NewPgUUID()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO mapeamentos (id, name, description, dominio, columns, filters, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+mappingColumns,
		id, m.Name, m.Description, m.Dominio, columnsJSON, filtersJSON, m.CreatedBy,
	)
	return scanMapping(row)
}

func (s *pgStore) FindByID(ctx context.Context, id pgtype.UUID) (ColumnMapping, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+mappingColumns+` FROM mapeamentos WHERE id = $1`, id)
	return scanMapping(row)
}

func (s *pgStore) FindByName(ctx context.Context, name string) (ColumnMapping, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+mappingColumns+` FROM mapeamentos WHERE name = $1`, name)
	return scanMapping(row)
}

func (s *pgStore) List(ctx context.Context) ([]ColumnMapping, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+mappingColumns+` FROM mapeamentos ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ColumnMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *pgStore) Update(ctx context.Context, m ColumnMapping) (ColumnMapping, error) {
	columnsJSON, filtersJSON, err := marshalMapping(m)
	if err != nil {
		return ColumnMapping{}, err
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE mapeamentos
		SET name = $2, description = $3, dominio = $4, columns = $5, filters = $6
		WHERE id = $1
		RETURNING `+mappingColumns,
		m.ID, m.Name, m.Description, m.Dominio, columnsJSON, filtersJSON,
	)
	return scanMapping(row)
}

func (s *pgStore) Delete(ctx context.Context, id pgtype.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM mapeamentos WHERE id = $1`, id)
	return err
}

func marshalMapping(m ColumnMapping) ([]byte, []byte, error) {
	columnsJSON, err := json.Marshal(m.Columns)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao serializar colunas: %w", err)
	}
	filters := m.Filters
	if filters == nil {
		filters = []RowFilter{}
	}
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao serializar filtros: %w", err)
	}
	return columnsJSON, filtersJSON, nil
}

func scanMapping(row pgx.Row) (ColumnMapping, error) {
	var (
		m           ColumnMapping
		description pgtype.Text
		columnsJSON []byte
		filtersJSON []byte
	)
	err := row.Scan(&m.ID, &m.Name, &description, &m.Dominio, &columnsJSON, &filtersJSON, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		return ColumnMapping{}, err
	}
	m.Description = description.String

	if err := json.Unmarshal(columnsJSON, &m.Columns); err != nil {
		return ColumnMapping{}, fmt.Errorf("erro ao ler colunas do mapeamento: %w", err)
	}
	if len(filtersJSON) > 0 {
		if err := json.Unmarshal(filtersJSON, &m.Filters); err != nil {
			return ColumnMapping{}, fmt.Errorf("erro ao ler filtros do mapeamento: %w", err)
		}
	}
	return m, nil
}
