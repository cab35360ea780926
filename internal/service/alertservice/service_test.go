package alertservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/pkg/logger"
	"pharmatrace/internal/realtime"
	"pharmatrace/internal/service/alertservice"
)

// MockAlertRepository é uma implementação mock da interface AlertRepository.
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Save(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	args := m.Called(ctx, alert)
	return args.Get(0).(domain.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindByCompany(ctx context.Context, companyID string) ([]domain.Alert, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]domain.Alert), args.Error(1)
}

func (m *MockAlertRepository) MarkResolved(ctx context.Context, alertID string) (domain.Alert, error) {
	args := m.Called(ctx, alertID)
	return args.Get(0).(domain.Alert), args.Error(1)
}

// MockCompanyRepository é uma implementação mock da interface CompanyRepository.
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id string) (domain.Company, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Company), args.Error(1)
}

// recordingNotifier captura as notificações disparadas em goroutine.
type recordingNotifier struct {
	calls chan notifyCall
}

type notifyCall struct {
	To    string
	Alert domain.Alert
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: make(chan notifyCall, 1)}
}

func (n *recordingNotifier) AlertCreated(to string, alert domain.Alert) {
	n.calls <- notifyCall{To: to, Alert: alert}
}

// fakeConn registra os eventos entregues pelo hub durante os testes.
type fakeConn struct {
	id     string
	events []struct {
		Event   string
		Payload interface{}
	}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event string, payload interface{}) error {
	c.events = append(c.events, struct {
		Event   string
		Payload interface{}
	}{event, payload})
	return nil
}

// passthroughAlert devolve no Save o mesmo alerta recebido pelo serviço.
func passthroughAlert(m *MockAlertRepository, capture *domain.Alert) {
	m.On("Save", mock.Anything, mock.AnythingOfType("domain.Alert")).
		Run(func(args mock.Arguments) {
			*capture = args.Get(1).(domain.Alert)
		}).
		Return(domain.Alert{ID: "alerta-1", CompanyID: "empresa-1", Type: domain.AlertTempBreach,
			Message: "Temperatura acima de 8°C", Resolved: false, CreatedAt: time.Now().UTC()}, nil)
}

// TestAddAlert_Defaults garante resolved=false, createdAt no momento da
// chamada e o broadcast alert:new para a sala da empresa.
func TestAddAlert_Defaults(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockCompanies := new(MockCompanyRepository)
	notifier := newRecordingNotifier()
	mockLogger := logger.NewLogger("error")
	hub := realtime.NewHub(mockLogger)

	svc := alertservice.NewService(mockRepo, mockCompanies, hub, notifier, mockLogger)

	conn := &fakeConn{id: "dashboard"}
	hub.Join(conn, realtime.CompanyRoom("empresa-1"))

	var saved domain.Alert
	passthroughAlert(mockRepo, &saved)
	mockCompanies.On("FindByID", mock.Anything, "empresa-1").
		Return(domain.Company{ID: "empresa-1", Name: "Pharma GmbH", ContactEmail: "ops@pharma.example"}, nil)

	alert, err := svc.AddAlert(context.Background(), "empresa-1", alertservice.AlertInput{
		Type:    domain.AlertTempBreach,
		Message: "Temperatura acima de 8°C",
	})

	assert.NoError(t, err)
	assert.False(t, alert.Resolved)
	assert.False(t, alert.CreatedAt.IsZero())

	// O serviço monta o alerta já com resolved=false e timestamp do servidor.
	assert.False(t, saved.Resolved)
	assert.WithinDuration(t, time.Now().UTC(), saved.CreatedAt, 2*time.Second)

	// Broadcast na sala da empresa.
	assert.Len(t, conn.events, 1)
	assert.Equal(t, realtime.EventAlertNew, conn.events[0].Event)

	// Notificação best-effort disparada para o contato da empresa.
	select {
	case call := <-notifier.calls:
		assert.Equal(t, "ops@pharma.example", call.To)
	case <-time.After(time.Second):
		t.Fatal("notificação de alerta não foi disparada")
	}
}

// TestAddAlert_BroadcastParaSalaDoCarregamento garante o fan-out extra quando
// o alerta referencia um carregamento.
func TestAddAlert_BroadcastParaSalaDoCarregamento(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockCompanies := new(MockCompanyRepository)
	mockLogger := logger.NewLogger("error")
	hub := realtime.NewHub(mockLogger)

	svc := alertservice.NewService(mockRepo, mockCompanies, hub, newRecordingNotifier(), mockLogger)

	daCarga := &fakeConn{id: "cliente-carga"}
	hub.Join(daCarga, realtime.ShipmentRoom("ship-9"))

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.Alert{
		ID: "alerta-2", CompanyID: "empresa-1", ShipmentID: "ship-9",
		Type: domain.AlertDeliveryDelay, Message: "Atraso na entrega",
	}, nil)
	mockCompanies.On("FindByID", mock.Anything, "empresa-1").
		Return(domain.Company{ID: "empresa-1"}, nil)

	_, err := svc.AddAlert(context.Background(), "empresa-1", alertservice.AlertInput{
		Type:       domain.AlertDeliveryDelay,
		Message:    "Atraso na entrega",
		ShipmentID: "ship-9",
	})

	assert.NoError(t, err)
	assert.Len(t, daCarga.events, 1)
	assert.Equal(t, realtime.EventAlertNew, daCarga.events[0].Event)
}

// TestAddAlert_FalhaNaBuscaDoContato garante que a operação primária não é
// afetada quando o contato da empresa está indisponível: sem e-mail, sem erro.
func TestAddAlert_FalhaNaBuscaDoContato(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockCompanies := new(MockCompanyRepository)
	notifier := newRecordingNotifier()
	mockLogger := logger.NewLogger("error")

	svc := alertservice.NewService(mockRepo, mockCompanies, realtime.NewHub(mockLogger), notifier, mockLogger)

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.Alert{
		ID: "alerta-3", CompanyID: "empresa-1", Type: domain.AlertCounterfeit, Message: "Suspeita de falsificação",
	}, nil)
	mockCompanies.On("FindByID", mock.Anything, "empresa-1").
		Return(domain.Company{}, apperror.NewDBError("falha ao buscar em companies", assert.AnError))

	alert, err := svc.AddAlert(context.Background(), "empresa-1", alertservice.AlertInput{
		Type:    domain.AlertCounterfeit,
		Message: "Suspeita de falsificação",
	})

	assert.NoError(t, err)
	assert.Equal(t, "alerta-3", alert.ID)

	// Nenhuma notificação disparada.
	select {
	case <-notifier.calls:
		t.Fatal("notificação não deveria ter sido disparada")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestAddAlert_Fail_Validation cobre tipo desconhecido e mensagem vazia.
func TestAddAlert_Fail_Validation(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockCompanies := new(MockCompanyRepository)
	mockLogger := logger.NewLogger("error")
	svc := alertservice.NewService(mockRepo, mockCompanies, realtime.NewHub(mockLogger), newRecordingNotifier(), mockLogger)

	_, err := svc.AddAlert(context.Background(), "empresa-1", alertservice.AlertInput{
		Type: "EXPLOSAO", Message: "x",
	})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.AddAlert(context.Background(), "empresa-1", alertservice.AlertInput{
		Type: domain.AlertTempBreach, Message: "",
	})
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestAddAlert_Fail_SemBroadcastParcial garante que falha de persistência não
// gera broadcast nem notificação.
func TestAddAlert_Fail_SemBroadcastParcial(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockCompanies := new(MockCompanyRepository)
	notifier := newRecordingNotifier()
	mockLogger := logger.NewLogger("error")
	hub := realtime.NewHub(mockLogger)
	svc := alertservice.NewService(mockRepo, mockCompanies, hub, notifier, mockLogger)

	conn := &fakeConn{id: "dashboard"}
	hub.Join(conn, realtime.CompanyRoom("empresa-1"))

	mockRepo.On("Save", mock.Anything, mock.Anything).
		Return(domain.Alert{}, apperror.NewDBError("falha ao inserir em alerts", assert.AnError))

	_, err := svc.AddAlert(context.Background(), "empresa-1", alertservice.AlertInput{
		Type: domain.AlertTempBreach, Message: "Temperatura acima de 8°C",
	})

	assert.Error(t, err)
	assert.Empty(t, conn.events)
	mockCompanies.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestListAlerts garante o repasse da lista (mais novos primeiro, ordenação do
// repositório) e a validação do companyID.
func TestListAlerts(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockCompanies := new(MockCompanyRepository)
	mockLogger := logger.NewLogger("error")
	svc := alertservice.NewService(mockRepo, mockCompanies, realtime.NewHub(mockLogger), newRecordingNotifier(), mockLogger)

	expected := []domain.Alert{
		{ID: "novo", CompanyID: "empresa-1"},
		{ID: "velho", CompanyID: "empresa-1"},
	}
	mockRepo.On("FindByCompany", mock.Anything, "empresa-1").Return(expected, nil)

	alerts, err := svc.ListAlerts(context.Background(), "empresa-1")
	assert.NoError(t, err)
	assert.Equal(t, expected, alerts)

	_, err = svc.ListAlerts(context.Background(), "")
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestResolve cobre sucesso e alerta inexistente.
func TestResolve(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockCompanies := new(MockCompanyRepository)
	mockLogger := logger.NewLogger("error")
	svc := alertservice.NewService(mockRepo, mockCompanies, realtime.NewHub(mockLogger), newRecordingNotifier(), mockLogger)

	mockRepo.On("MarkResolved", mock.Anything, "alerta-1").
		Return(domain.Alert{ID: "alerta-1", Resolved: true}, nil)

	resolved, err := svc.Resolve(context.Background(), "alerta-1")
	assert.NoError(t, err)
	assert.True(t, resolved.Resolved)

	mockRepo.On("MarkResolved", mock.Anything, "fantasma").
		Return(domain.Alert{}, apperror.NewNotFoundError("Alerta com ID fantasma não existe na base de dados."))

	_, err = svc.Resolve(context.Background(), "fantasma")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}
