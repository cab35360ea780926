package sensorservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/pkg/logger"
)

// Limites de paginação para ListReadings.
const (
	defaultTake = 20
	maxTake     = 100
)

// SensorRepository define o contrato que este Serviço espera da camada de
// Persistência.
type SensorRepository interface {
	FindByID(ctx context.Context, id string) (domain.Sensor, error)
	SaveReading(ctx context.Context, reading domain.SensorReading) (domain.SensorReading, error)
	FindReadings(ctx context.Context, sensorID string, take int) ([]domain.SensorReading, error)
}

// ReadingInput são os dados de uma medição enviada pelo sensor.
type ReadingInput struct {
	Temperature float64  `json:"temperature"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Service implementa a ingestão de leituras de sensor.
type Service struct {
	repo   SensorRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Sensor.
func NewService(repo SensorRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// AddReading persiste uma leitura e a retorna com ID e timestamp do servidor.
//
// Esta operação NÃO avalia thresholds nem cria alertas: a criação de alerta é
// uma operação separada e explicitamente invocada (alertservice.AddAlert).
func (s *Service) AddReading(ctx context.Context, sensorID string, input ReadingInput) (domain.SensorReading, error) {
	// NotFound se o sensor não existir.
	if _, err := s.repo.FindByID(ctx, sensorID); err != nil {
		return domain.SensorReading{}, err
	}

	reading := domain.SensorReading{
		ID:          uuid.New().String(),
		SensorID:    sensorID,
		Temperature: input.Temperature,
		Humidity:    input.Humidity,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		CreatedAt:   time.Now().UTC(),
	}

	saved, err := s.repo.SaveReading(ctx, reading)
	if err != nil {
		s.logger.Error("Falha ao salvar leitura de sensor.", err)
		return domain.SensorReading{}, err
	}

	s.logger.Debug("Leitura de sensor registrada.", map[string]interface{}{
		"sensor_id":   sensorID,
		"reading_id":  saved.ID,
		"temperature": saved.Temperature,
	})
	return saved, nil
}

// ListReadings retorna as leituras mais recentes do sensor, da mais nova para
// a mais velha. take fora da faixa é ajustado para os limites do serviço.
func (s *Service) ListReadings(ctx context.Context, sensorID string, take int) ([]domain.SensorReading, error) {
	if sensorID == "" {
		return nil, apperror.NewValidationError("O ID do sensor é obrigatório.")
	}
	if take <= 0 {
		take = defaultTake
	}
	if take > maxTake {
		take = maxTake
	}

	return s.repo.FindReadings(ctx, sensorID, take)
}
