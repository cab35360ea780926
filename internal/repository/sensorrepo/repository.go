package sensorrepo

import (
	"context"
	"fmt"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/storage"
)

const (
	sensorsTable  = "sensors"
	readingsTable = "sensor_readings"
)

// SensorRepository mapeia sensores e leituras sobre o contrato genérico de persistência.
type SensorRepository struct {
	Store storage.Store
}

// NewSensorRepository cria e retorna uma nova instância do Repositório.
func NewSensorRepository(store storage.Store) *SensorRepository {
	return &SensorRepository{Store: store}
}

// FindByID busca um sensor pelo ID.
func (r *SensorRepository) FindByID(ctx context.Context, id string) (domain.Sensor, error) {
	rows, err := r.Store.Select(ctx, sensorsTable, storage.Predicate{"id": id}, nil, 1)
	if err != nil {
		return domain.Sensor{}, err
	}
	if len(rows) == 0 {
		return domain.Sensor{}, apperror.NewNotFoundError(fmt.Sprintf("Sensor com ID %s não existe na base de dados.", id))
	}
	return sensorFromRow(rows[0]), nil
}

// SaveReading persiste uma leitura imutável de sensor.
func (r *SensorRepository) SaveReading(ctx context.Context, reading domain.SensorReading) (domain.SensorReading, error) {
	row := storage.Row{
		"id":          reading.ID,
		"sensor_id":   reading.SensorID,
		"temperature": reading.Temperature,
		"humidity":    nullableFloat(reading.Humidity),
		"latitude":    nullableFloat(reading.Latitude),
		"longitude":   nullableFloat(reading.Longitude),
		"created_at":  reading.CreatedAt,
	}

	saved, err := r.Store.Insert(ctx, readingsTable, row)
	if err != nil {
		return domain.SensorReading{}, err
	}
	return readingFromRow(saved), nil
}

// FindReadings retorna as leituras mais recentes do sensor, da mais nova para
// a mais velha, limitadas a take.
func (r *SensorRepository) FindReadings(ctx context.Context, sensorID string, take int) ([]domain.SensorReading, error) {
	rows, err := r.Store.Select(ctx, readingsTable,
		storage.Predicate{"sensor_id": sensorID},
		&storage.Order{Column: "created_at", Desc: true}, take)
	if err != nil {
		return nil, err
	}

	readings := make([]domain.SensorReading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, readingFromRow(row))
	}
	return readings, nil
}

// --- Mapeamento Row <-> entidade ---

func sensorFromRow(row storage.Row) domain.Sensor {
	return domain.Sensor{
		ID:        row.String("id"),
		CompanyID: row.String("company_id"),
		ProductID: row.String("product_id"),
		Serial:    row.String("serial"),
	}
}

func readingFromRow(row storage.Row) domain.SensorReading {
	return domain.SensorReading{
		ID:          row.String("id"),
		SensorID:    row.String("sensor_id"),
		Temperature: row.Float("temperature"),
		Humidity:    row.FloatPtr("humidity"),
		Latitude:    row.FloatPtr("latitude"),
		Longitude:   row.FloatPtr("longitude"),
		CreatedAt:   row.Time("created_at"),
	}
}

// nullableFloat converte ponteiro opcional em valor/NULL para o banco.
func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
