package imports

import (
	"context"

	"github.com/coopvale/backoffice/pkg/parser"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persiste logs de importação e linhas importadas.
type Store interface {
	CreateLog(ctx context.Context, log ImportLog) (ImportLog, error)
	FindLogByID(ctx context.Context, id pgtype.UUID) (ImportLog, error)
	ListLogs(ctx context.Context) ([]ImportLog, error)
	// Checkpoint grava contadores e progresso do log; chamado a cada lote.
	Checkpoint(ctx context.Context, log ImportLog) error
	// DeleteLog remove o log e, por cascata, suas linhas importadas.
	DeleteLog(ctx context.Context, id pgtype.UUID) error
	// UpsertRow insere ou atualiza pela chave (import_id, chave_natural);
	// devolve true quando a linha é nova.
	UpsertRow(ctx context.Context, row LinhaImportada) (bool, error)
}

// ProdutoStore resolve códigos de produto para seus ids. Leitura apenas; o
// cadastro de produtos vive fora deste serviço.
type ProdutoStore interface {
	FindIDByCodigo(ctx context.Context, codigo string) (pgtype.UUID, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const logColumns = `id, arquivo, mapping_id, mapping_name, dominio, total_linhas,
	truncado, linhas_processadas, sucesso, erros, duplicados, novos,
	produtos_nao_encontrados, progresso, concluido, owner_user_id,
	created_at, updated_at`

func (s *pgStore) CreateLog(ctx context.Context, log ImportLog) (ImportLog, error) {
	id := parser.NewPgUUID()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO import_logs
			(id, arquivo, mapping_id, mapping_name, dominio, total_linhas, truncado, owner_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+logColumns,
		id, log.Arquivo, log.MappingID, log.MappingName, log.Dominio, log.TotalLinhas,
		log.Truncado, log.OwnerUserID,
	)
	return scanLog(row)
}

func (s *pgStore) FindLogByID(ctx context.Context, id pgtype.UUID) (ImportLog, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+logColumns+` FROM import_logs WHERE id = $1`, id)
	return scanLog(row)
}

func (s *pgStore) ListLogs(ctx context.Context) ([]ImportLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+logColumns+` FROM import_logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, log)
	}
	return result, rows.Err()
}

func (s *pgStore) Checkpoint(ctx context.Context, log ImportLog) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE import_logs
		SET total_linhas = $2,
			truncado = $3,
			linhas_processadas = $4,
			sucesso = $5,
			erros = $6,
			duplicados = $7,
			novos = $8,
			produtos_nao_encontrados = $9,
			progresso = $10,
			concluido = $11,
			updated_at = now()
		WHERE id = $1`,
		log.ID, log.TotalLinhas, log.Truncado, log.LinhasProcessadas, log.Sucesso,
		log.Erros, log.Duplicados, log.Novos, log.ProdutosNaoEncontrados,
		log.Progresso, log.Concluido,
	)
	return err
}

func (s *pgStore) DeleteLog(ctx context.Context, id pgtype.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM import_logs WHERE id = $1`, id)
	return err
}

func (s *pgStore) UpsertRow(ctx context.Context, row LinhaImportada) (bool, error) {
	id := parser.NewPgUUID()
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO linhas_importadas
			(id, import_id, produto_id, chave_natural, classificacao, conta,
			 subconta, documento, produto, cliente, marca, grupo, subgrupo,
			 quantidade, valor, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (import_id, chave_natural) DO UPDATE
		SET produto_id = EXCLUDED.produto_id,
			classificacao = EXCLUDED.classificacao,
			conta = EXCLUDED.conta,
			subconta = EXCLUDED.subconta,
			documento = EXCLUDED.documento,
			produto = EXCLUDED.produto,
			cliente = EXCLUDED.cliente,
			marca = EXCLUDED.marca,
			grupo = EXCLUDED.grupo,
			subgrupo = EXCLUDED.subgrupo,
			quantidade = EXCLUDED.quantidade,
			valor = EXCLUDED.valor,
			data = EXCLUDED.data,
			updated_at = now()
		RETURNING (xmax = 0)`,
		id, row.ImportID, row.ProdutoID, row.ChaveNatural, row.Classificacao,
		row.Conta, row.Subconta, row.Documento, row.Produto, row.Cliente,
		row.Marca, row.Grupo, row.Subgrupo, row.Quantidade, row.Valor, row.Data,
	).Scan(&inserted)
	return inserted, err
}

func scanLog(row pgx.Row) (ImportLog, error) {
	var l ImportLog
	err := row.Scan(
		&l.ID, &l.Arquivo, &l.MappingID, &l.MappingName, &l.Dominio,
		&l.TotalLinhas, &l.Truncado, &l.LinhasProcessadas, &l.Sucesso, &l.Erros,
		&l.Duplicados, &l.Novos, &l.ProdutosNaoEncontrados, &l.Progresso,
		&l.Concluido, &l.OwnerUserID, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

type pgProdutoStore struct {
	pool *pgxpool.Pool
}

func NewProdutoStore(pool *pgxpool.Pool) ProdutoStore {
	return &pgProdutoStore{pool: pool}
}

func (s *pgProdutoStore) FindIDByCodigo(ctx context.Context, codigo string) (pgtype.UUID, error) {
	var id pgtype.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM produtos WHERE codigo = $1`, codigo).Scan(&id)
	return id, err
}
