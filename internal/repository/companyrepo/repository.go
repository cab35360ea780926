package companyrepo

import (
	"context"
	"fmt"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/storage"
)

const companiesTable = "companies"

// CompanyRepository lê o cadastro de empresas pelo contrato genérico.
// O CRUD completo de empresa vive fora deste núcleo; aqui só buscamos o
// contato para notificação de alertas.
type CompanyRepository struct {
	Store storage.Store
}

// NewCompanyRepository cria e retorna uma nova instância do Repositório.
func NewCompanyRepository(store storage.Store) *CompanyRepository {
	return &CompanyRepository{Store: store}
}

// FindByID busca uma empresa pelo ID.
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (domain.Company, error) {
	rows, err := r.Store.Select(ctx, companiesTable, storage.Predicate{"id": id}, nil, 1)
	if err != nil {
		return domain.Company{}, err
	}
	if len(rows) == 0 {
		return domain.Company{}, apperror.NewNotFoundError(fmt.Sprintf("Empresa com ID %s não existe na base de dados.", id))
	}

	return domain.Company{
		ID:           rows[0].String("id"),
		Name:         rows[0].String("name"),
		ContactEmail: rows[0].String("contact_email"),
		CreatedAt:    rows[0].Time("created_at"),
	}, nil
}
