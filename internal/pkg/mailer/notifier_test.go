package mailer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pharmatrace/internal/domain"
	"pharmatrace/internal/pkg/logger"
	"pharmatrace/internal/pkg/mailer"
)

// MockMailer é uma implementação mock da interface Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendMail(ctx context.Context, to, subject, htmlBody string) (string, error) {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.String(0), args.Error(1)
}

func testAlert() domain.Alert {
	return domain.Alert{
		ID:        "alerta-1",
		CompanyID: "empresa-1",
		Type:      domain.AlertTempBreach,
		Message:   "Temperatura acima de 8°C",
		CreatedAt: time.Now().UTC(),
	}
}

// TestAlertCreated_EnviaParaOContato garante o envio para o destinatário certo.
func TestAlertCreated_EnviaParaOContato(t *testing.T) {
	mockMailer := new(MockMailer)
	n := mailer.NewNotifier(mockMailer, logger.NewLogger("error"))

	mockMailer.On("SendMail", mock.Anything, "ops@pharma.example", mock.Anything, mock.Anything).
		Return("<id-1@smtp>", nil)

	n.AlertCreated("ops@pharma.example", testAlert())

	mockMailer.AssertExpectations(t)
}

// TestAlertCreated_FalhaEngolida garante o comportamento best-effort: a falha
// do mailer é registrada e descartada, nunca propagada (AlertCreated não tem
// como falhar aos olhos do chamador).
func TestAlertCreated_FalhaEngolida(t *testing.T) {
	mockMailer := new(MockMailer)
	n := mailer.NewNotifier(mockMailer, logger.NewLogger("error"))

	mockMailer.On("SendMail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	assert.NotPanics(t, func() {
		n.AlertCreated("ops@pharma.example", testAlert())
	})
	mockMailer.AssertExpectations(t)
}

// TestAlertCreated_SemContato garante que destinatário vazio nem tenta enviar.
func TestAlertCreated_SemContato(t *testing.T) {
	mockMailer := new(MockMailer)
	n := mailer.NewNotifier(mockMailer, logger.NewLogger("error"))

	n.AlertCreated("", testAlert())

	mockMailer.AssertNotCalled(t, "SendMail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestSMTPMailer_SemHostConfigurado garante que o cliente sem SMTP_HOST falha
// localmente (e a falha vira um descarte best-effort na camada de cima).
func TestSMTPMailer_SemHostConfigurado(t *testing.T) {
	m := mailer.NewSMTPMailer("", 587, "alerts@pharmatrace.local", "", "")

	_, err := m.SendMail(context.Background(), "ops@pharma.example", "assunto", "<p>corpo</p>")
	assert.Error(t, err)
}
