package shipmentservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/pkg/logger"
	"pharmatrace/internal/realtime"
)

// ShipmentRepository define o contrato que este Serviço espera da camada de
// Persistência.
type ShipmentRepository interface {
	Save(ctx context.Context, shipment domain.Shipment) (domain.Shipment, error)
	FindByID(ctx context.Context, id string) (domain.Shipment, error)
	AppendCheckpoint(ctx context.Context, cp domain.Checkpoint) (domain.Checkpoint, error)
	UpdateStatus(ctx context.Context, shipmentID string, status domain.ShipmentStatus, updatedAt time.Time) error
}

// CheckpointInput são os dados fornecidos pelo chamador para um novo checkpoint.
// O timestamp nunca vem daqui; é atribuído pelo servidor no momento do append.
type CheckpointInput struct {
	Location string                `json:"location"`
	Status   domain.ShipmentStatus `json:"status"`
	Metadata map[string]string     `json:"metadata,omitempty"`
}

// Service implementa a máquina de estados de carregamento: criação, append de
// checkpoints e histórico, com broadcast das atualizações às salas interessadas.
type Service struct {
	repo   ShipmentRepository
	hub    realtime.Broadcaster
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Carregamento.
func NewService(repo ShipmentRepository, hub realtime.Broadcaster, log logger.Logger) *Service {
	return &Service{repo: repo, hub: hub, logger: log}
}

// Create registra um carregamento novo com status CREATED e histórico vazio.
func (s *Service) Create(ctx context.Context, reference, batchID, origin, destination, companyID string) (domain.Shipment, error) {
	if reference == "" || companyID == "" {
		return domain.Shipment{}, apperror.NewValidationError("Referência e empresa são obrigatórias para o carregamento.")
	}
	if origin == "" || destination == "" {
		return domain.Shipment{}, apperror.NewValidationError("Origem e destino são obrigatórios para o carregamento.")
	}

	now := time.Now().UTC()
	shipment := domain.Shipment{
		ID:          uuid.New().String(),
		Reference:   reference,
		BatchID:     batchID,
		CompanyID:   companyID,
		Origin:      origin,
		Destination: destination,
		Status:      domain.StatusCreated,
		Checkpoints: []domain.Checkpoint{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Save(ctx, shipment)
	if err != nil {
		s.logger.Error("Falha ao salvar carregamento no repositório.", err)
		return domain.Shipment{}, err
	}

	s.logger.Info("Carregamento criado.", map[string]interface{}{
		"shipment_id": created.ID,
		"company_id":  created.CompanyID,
		"reference":   created.Reference,
	})
	return created, nil
}

// AddCheckpoint anexa um checkpoint ao carregamento e adota o status dele
// incondicionalmente — nenhuma legalidade de transição é verificada; qualquer
// status pode suceder qualquer outro (comportamento observado e mantido).
//
// Sequência: valida -> persiste checkpoint -> persiste status -> broadcast.
// O broadcast só acontece depois que a persistência confirma; se ela falha, a
// operação falha inteira sem broadcast parcial.
//
// Dois appends concorrentes no mesmo carregamento podem competir; o status do
// perdedor é sobrescrito silenciosamente (last-writer-wins, sem transação).
func (s *Service) AddCheckpoint(ctx context.Context, shipmentID string, input CheckpointInput) (domain.Shipment, error) {
	if input.Location == "" {
		return domain.Shipment{}, apperror.NewValidationError("A localização do checkpoint é obrigatória.")
	}
	if !input.Status.Valid() {
		return domain.Shipment{}, apperror.NewValidationError("Status de checkpoint desconhecido: " + string(input.Status))
	}

	// NotFound se o carregamento não existir.
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return domain.Shipment{}, err
	}

	now := time.Now().UTC()
	checkpoint := domain.Checkpoint{
		ID:         uuid.New().String(),
		ShipmentID: shipmentID,
		Location:   input.Location,
		Status:     input.Status,
		Metadata:   input.Metadata,
		CreatedAt:  now,
	}

	saved, err := s.repo.AppendCheckpoint(ctx, checkpoint)
	if err != nil {
		s.logger.Error("Falha ao anexar checkpoint.", err)
		return domain.Shipment{}, err
	}

	if err := s.repo.UpdateStatus(ctx, shipmentID, input.Status, now); err != nil {
		s.logger.Error("Falha ao atualizar status do carregamento.", err)
		return domain.Shipment{}, err
	}

	shipment.Checkpoints = append(shipment.Checkpoints, saved)
	shipment.Status = input.Status
	shipment.UpdatedAt = now

	// Fan-out para a sala do carregamento e a da empresa dona.
	s.hub.Emit(realtime.ShipmentRoom(shipmentID), realtime.EventShipmentCheckpoint, shipment)
	s.hub.Emit(realtime.CompanyRoom(shipment.CompanyID), realtime.EventShipmentCheckpoint, shipment)

	s.logger.Info("Checkpoint anexado e transmitido.", map[string]interface{}{
		"shipment_id": shipmentID,
		"status":      string(input.Status),
		"location":    input.Location,
	})
	return shipment, nil
}

// History retorna a lista completa e ordenada de checkpoints do carregamento,
// ou NotFound se o carregamento não existir.
func (s *Service) History(ctx context.Context, shipmentID string) ([]domain.Checkpoint, error) {
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	return shipment.Checkpoints, nil
}
