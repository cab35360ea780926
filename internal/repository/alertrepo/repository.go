package alertrepo

import (
	"context"
	"fmt"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/storage"
)

const alertsTable = "alerts"

// AlertRepository mapeia alertas sobre o contrato genérico de persistência.
type AlertRepository struct {
	Store storage.Store
}

// NewAlertRepository cria e retorna uma nova instância do Repositório.
func NewAlertRepository(store storage.Store) *AlertRepository {
	return &AlertRepository{Store: store}
}

// Save persiste um alerta recém-criado (sempre com resolved=false).
func (r *AlertRepository) Save(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	row := storage.Row{
		"id":         alert.ID,
		"company_id": alert.CompanyID,
		"type":       string(alert.Type),
		"message":    alert.Message,
		"resolved":   alert.Resolved,
		"created_at": alert.CreatedAt,
	}
	// Colunas opcionais entram como NULL quando vazias.
	row["shipment_id"] = nullableString(alert.ShipmentID)
	row["sensor_id"] = nullableString(alert.SensorID)

	saved, err := r.Store.Insert(ctx, alertsTable, row)
	if err != nil {
		return domain.Alert{}, err
	}
	return alertFromRow(saved), nil
}

// FindByCompany retorna todos os alertas da empresa, do mais novo para o mais velho.
func (r *AlertRepository) FindByCompany(ctx context.Context, companyID string) ([]domain.Alert, error) {
	rows, err := r.Store.Select(ctx, alertsTable,
		storage.Predicate{"company_id": companyID},
		&storage.Order{Column: "created_at", Desc: true}, 0)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, alertFromRow(row))
	}
	return alerts, nil
}

// MarkResolved marca um alerta como resolvido e retorna o registro atualizado.
func (r *AlertRepository) MarkResolved(ctx context.Context, alertID string) (domain.Alert, error) {
	row, err := r.Store.Update(ctx, alertsTable,
		storage.Predicate{"id": alertID},
		storage.Row{"resolved": true},
	)
	if err == storage.ErrNoRows {
		return domain.Alert{}, apperror.NewNotFoundError(fmt.Sprintf("Alerta com ID %s não existe na base de dados.", alertID))
	}
	if err != nil {
		return domain.Alert{}, err
	}
	return alertFromRow(row), nil
}

// --- Mapeamento Row <-> entidade ---

func alertFromRow(row storage.Row) domain.Alert {
	return domain.Alert{
		ID:         row.String("id"),
		CompanyID:  row.String("company_id"),
		Type:       domain.AlertType(row.String("type")),
		Message:    row.String("message"),
		ShipmentID: row.String("shipment_id"),
		SensorID:   row.String("sensor_id"),
		Resolved:   row.Bool("resolved"),
		CreatedAt:  row.Time("created_at"),
	}
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
