package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/pkg/logger"
)

// Postgres é a implementação concreta do contrato Store sobre o PostgreSQL
// hospedado, usando database/sql + lib/pq.
type Postgres struct {
	DB        *sql.DB
	DBTimeout time.Duration
	Logger    logger.Logger
}

// NewPostgres cria o adaptador de persistência.
// Recebe o pool já configurado (database.NewPostgresDB) por injeção.
func NewPostgres(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *Postgres {
	return &Postgres{
		DB:        db,
		DBTimeout: dbTimeout,
		Logger:    log,
	}
}

// Insert persiste uma linha nova e retorna a linha como ficou no banco
// (incluindo defaults preenchidos pelo servidor).
func (p *Postgres) Insert(ctx context.Context, table string, row Row) (Row, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, p.DBTimeout)
	defer cancel()

	columns := sortedColumns(map[string]interface{}(row))

	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	quoted := make([]string, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[col]
		quoted[i] = pq.QuoteIdentifier(col)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		pq.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	rows, err := p.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, p.dbError(fmt.Sprintf("falha ao inserir em %s", table), err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, p.dbError(fmt.Sprintf("falha ao ler retorno do insert em %s", table), err)
	}
	if len(result) == 0 {
		return nil, p.dbError(fmt.Sprintf("insert em %s não retornou linha", table), sql.ErrNoRows)
	}
	return result[0], nil
}

// Update aplica o patch a todas as linhas que casam com o predicado e retorna
// a primeira linha atualizada. Retorna ErrNoRows se o predicado não atingir nada.
func (p *Postgres) Update(ctx context.Context, table string, pred Predicate, patch Row) (Row, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, p.DBTimeout)
	defer cancel()

	setColumns := sortedColumns(map[string]interface{}(patch))
	predColumns := sortedColumns(map[string]interface{}(pred))

	var args []interface{}
	setClauses := make([]string, len(setColumns))
	for i, col := range setColumns {
		args = append(args, patch[col])
		setClauses[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), len(args))
	}
	whereClauses := make([]string, len(predColumns))
	for i, col := range predColumns {
		args = append(args, pred[col])
		whereClauses[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), len(args))
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING *",
		pq.QuoteIdentifier(table),
		strings.Join(setClauses, ", "),
		strings.Join(whereClauses, " AND "),
	)

	rows, err := p.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, p.dbError(fmt.Sprintf("falha ao atualizar %s", table), err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, p.dbError(fmt.Sprintf("falha ao ler retorno do update em %s", table), err)
	}
	if len(result) == 0 {
		return nil, ErrNoRows
	}
	return result[0], nil
}

// Select busca as linhas que casam com o predicado (igualdade, AND), com
// ordenação e limite opcionais. Ausência de resultados retorna slice vazio, não erro.
func (p *Postgres) Select(ctx context.Context, table string, pred Predicate, order *Order, limit int) ([]Row, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, p.DBTimeout)
	defer cancel()

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", pq.QuoteIdentifier(table))

	var args []interface{}
	if len(pred) > 0 {
		whereClauses := make([]string, 0, len(pred))
		for _, col := range sortedColumns(map[string]interface{}(pred)) {
			args = append(args, pred[col])
			whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), len(args)))
		}
		fmt.Fprintf(&sb, " WHERE %s", strings.Join(whereClauses, " AND "))
	}

	if order != nil {
		direction := "ASC"
		if order.Desc {
			direction = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", pq.QuoteIdentifier(order.Column), direction)
	}

	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}

	rows, err := p.DB.QueryContext(ctxTimeout, sb.String(), args...)
	if err != nil {
		return nil, p.dbError(fmt.Sprintf("falha ao buscar em %s", table), err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, p.dbError(fmt.Sprintf("falha ao ler resultado de %s", table), err)
	}
	return result, nil
}


// dbError loga a falha de persistência e a devolve como AppError de banco.
func (p *Postgres) dbError(msg string, err error) error {
	p.Logger.Error(msg, err)
	return apperror.NewDBError(msg, err)
}

// sortedColumns retorna as colunas do mapa em ordem estável, para que a query
// gerada seja determinística (importa para logs e para os testes).
func sortedColumns(m map[string]interface{}) []string {
	columns := make([]string, 0, len(m))
	for col := range m {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// scanRows materializa o resultado como []Row genérico.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
