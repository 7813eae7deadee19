package audit

import (
	"context"

	"github.com/coopvale/backoffice/internal/imports"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) ListLogs(ctx context.Context, scope Scope) ([]imports.ImportLog, error) {
	query := `
		SELECT id, arquivo, total_linhas, linhas_processadas, concluido,
		       created_at, updated_at
		FROM import_logs`
	var args []any

	switch {
	case scope.ImportID.Valid:
		query += ` WHERE id = $1`
		args = append(args, scope.ImportID)
	case !scope.Since.IsZero():
		query += ` WHERE updated_at >= $1`
		args = append(args, scope.Since)
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []imports.ImportLog
	for rows.Next() {
		var l imports.ImportLog
		err := rows.Scan(&l.ID, &l.Arquivo, &l.TotalLinhas, &l.LinhasProcessadas,
			&l.Concluido, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *pgStore) ListRowStubs(ctx context.Context, importID pgtype.UUID) ([]RowStub, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chave_natural, created_at
		FROM linhas_importadas
		WHERE import_id = $1
		ORDER BY created_at, id`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stubs []RowStub
	for rows.Next() {
		var stub RowStub
		if err := rows.Scan(&stub.ID, &stub.ChaveNatural, &stub.CreatedAt); err != nil {
			return nil, err
		}
		stubs = append(stubs, stub)
	}
	return stubs, rows.Err()
}
