package alertservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/pkg/logger"
	"pharmatrace/internal/realtime"
)

// AlertRepository define o contrato que este Serviço espera da camada de
// Persistência.
type AlertRepository interface {
	Save(ctx context.Context, alert domain.Alert) (domain.Alert, error)
	FindByCompany(ctx context.Context, companyID string) ([]domain.Alert, error)
	MarkResolved(ctx context.Context, alertID string) (domain.Alert, error)
}

// CompanyRepository fornece o contato da empresa para a notificação best-effort.
type CompanyRepository interface {
	FindByID(ctx context.Context, id string) (domain.Company, error)
}

// Notifier é o canal best-effort de e-mail; nunca retorna erro ao serviço.
type Notifier interface {
	AlertCreated(to string, alert domain.Alert)
}

// AlertInput são os dados fornecidos pelo chamador para um novo alerta.
type AlertInput struct {
	Type       domain.AlertType `json:"type"`
	Message    string           `json:"message"`
	ShipmentID string           `json:"shipment_id,omitempty"`
	SensorID   string           `json:"sensor_id,omitempty"`
}

// Service implementa o pipeline de alertas: persistir, transmitir às salas
// interessadas e notificar o contato da empresa por e-mail (best-effort).
type Service struct {
	repo      AlertRepository
	companies CompanyRepository
	hub       realtime.Broadcaster
	notifier  Notifier
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Alertas.
func NewService(repo AlertRepository, companies CompanyRepository, hub realtime.Broadcaster, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		companies: companies,
		hub:       hub,
		notifier:  notifier,
		logger:    log,
	}
}

// AddAlert persiste um alerta novo (sempre resolved=false), transmite
// alert:new à sala da empresa — e à do carregamento, quando informado — e
// dispara a notificação por e-mail sem esperar pela entrega.
//
// A operação retorna o registro completo com o broadcast já tentado, ou falha
// atomicamente sem broadcast parcial. Falha de e-mail nunca chega ao chamador.
func (s *Service) AddAlert(ctx context.Context, companyID string, input AlertInput) (domain.Alert, error) {
	if companyID == "" {
		return domain.Alert{}, apperror.NewValidationError("O ID da empresa é obrigatório para o alerta.")
	}
	if !input.Type.Valid() {
		return domain.Alert{}, apperror.NewValidationError("Tipo de alerta desconhecido: " + string(input.Type))
	}
	if input.Message == "" {
		return domain.Alert{}, apperror.NewValidationError("A mensagem do alerta é obrigatória.")
	}

	alert := domain.Alert{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		Type:       input.Type,
		Message:    input.Message,
		ShipmentID: input.ShipmentID,
		SensorID:   input.SensorID,
		Resolved:   false,
		CreatedAt:  time.Now().UTC(),
	}

	saved, err := s.repo.Save(ctx, alert)
	if err != nil {
		s.logger.Error("Falha ao salvar alerta no repositório.", err)
		return domain.Alert{}, err
	}

	// Fan-out depois que a persistência confirmou.
	s.hub.Emit(realtime.CompanyRoom(companyID), realtime.EventAlertNew, saved)
	if saved.ShipmentID != "" {
		s.hub.Emit(realtime.ShipmentRoom(saved.ShipmentID), realtime.EventAlertNew, saved)
	}

	// Notificação best-effort: a busca do contato e o envio são isolados do
	// resultado da operação. Falha aqui é registrada e descartada.
	company, lookupErr := s.companies.FindByID(ctx, companyID)
	if lookupErr != nil {
		s.logger.Warn("Contato da empresa indisponível; notificação de alerta ignorada.", map[string]interface{}{
			"company_id": companyID,
			"alert_id":   saved.ID,
			"error":      lookupErr.Error(),
		})
	} else {
		go s.notifier.AlertCreated(company.ContactEmail, saved)
	}

	s.logger.Info("Alerta criado e transmitido.", map[string]interface{}{
		"alert_id":   saved.ID,
		"company_id": companyID,
		"type":       string(saved.Type),
	})
	return saved, nil
}

// ListAlerts retorna todos os alertas da empresa, do mais novo para o mais velho.
func (s *Service) ListAlerts(ctx context.Context, companyID string) ([]domain.Alert, error) {
	if companyID == "" {
		return nil, apperror.NewValidationError("O ID da empresa é obrigatório.")
	}
	return s.repo.FindByCompany(ctx, companyID)
}

// Resolve marca um alerta como resolvido e retorna o registro atualizado.
// Não há broadcast nem e-mail na resolução.
func (s *Service) Resolve(ctx context.Context, alertID string) (domain.Alert, error) {
	if alertID == "" {
		return domain.Alert{}, apperror.NewValidationError("O ID do alerta é obrigatório.")
	}

	resolved, err := s.repo.MarkResolved(ctx, alertID)
	if err != nil {
		return domain.Alert{}, err
	}

	s.logger.Info("Alerta resolvido.", map[string]interface{}{"alert_id": resolved.ID})
	return resolved, nil
}
