package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNoRows é retornado por Update quando o predicado não atinge nenhuma linha.
// A camada de repositório traduz este sentinela para um NotFoundError de domínio.
var ErrNoRows = errors.New("storage: nenhuma linha encontrada")

// Row é uma linha genérica (coluna -> valor) trafegada pelo contrato de
// persistência. Os repositórios fazem o mapeamento Row <-> entidade de domínio.
type Row map[string]interface{}

// Predicate é um filtro de igualdade (coluna -> valor esperado), combinado com AND.
type Predicate map[string]interface{}

// Order descreve a ordenação de um Select.
type Order struct {
	Column string
	Desc   bool
}

// Store é o contrato mínimo de persistência pelo qual todo o núcleo acessa o
// banco relacional hospedado. O restante do sistema (CRUD de cadastro, perfil
// da empresa, admin) usa o mesmo contrato fora deste repositório.
type Store interface {
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, pred Predicate, patch Row) (Row, error)
	Select(ctx context.Context, table string, pred Predicate, order *Order, limit int) ([]Row, error)
}

// --- Helpers de leitura de Row ---
// O driver devolve colunas de texto como []byte ou string dependendo do tipo;
// estes helpers normalizam o acesso para os repositórios.

// String lê uma coluna de texto; colunas NULL viram "".
func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// Float lê uma coluna numérica; colunas NULL viram 0.
func (r Row) Float(column string) float64 {
	switch v := r[column].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// FloatPtr lê uma coluna numérica opcional; colunas NULL viram nil.
func (r Row) FloatPtr(column string) *float64 {
	if r[column] == nil {
		return nil
	}
	f := r.Float(column)
	return &f
}

// Bool lê uma coluna booleana; colunas NULL viram false.
func (r Row) Bool(column string) bool {
	if v, ok := r[column].(bool); ok {
		return v
	}
	return false
}

// Time lê uma coluna de timestamp; colunas NULL viram o zero de time.Time.
func (r Row) Time(column string) time.Time {
	if v, ok := r[column].(time.Time); ok {
		return v
	}
	return time.Time{}
}
