package mailer

import (
	"context"
	"fmt"
	"time"

	"pharmatrace/internal/domain"
	"pharmatrace/internal/pkg/logger"
)

// sendTimeout limita o envio best-effort; a operação primária já terminou
// quando o notifier roda, então ninguém espera por isso.
const sendTimeout = 10 * time.Second

// Notifier é o notificador best-effort do pipeline de alertas.
// Toda falha de envio é capturada e registrada no seu próprio canal de log,
// nunca propagada ao chamador — um alerta persiste e é transmitido mesmo com
// o e-mail fora do ar.
type Notifier struct {
	mailer Mailer
	logger logger.Logger
}

// NewNotifier cria o notificador sobre o Mailer injetado.
func NewNotifier(m Mailer, log logger.Logger) *Notifier {
	return &Notifier{
		mailer: m,
		logger: log,
	}
}

// AlertCreated envia a notificação de alerta novo ao contato da empresa.
// Chamada depois que a escrita primária foi confirmada; roda tipicamente em
// goroutine própria e não retorna nada.
func (n *Notifier) AlertCreated(to string, alert domain.Alert) {
	if to == "" {
		n.logger.Debug("Empresa sem e-mail de contato; notificação de alerta ignorada.", map[string]interface{}{
			"alert_id":   alert.ID,
			"company_id": alert.CompanyID,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	subject := fmt.Sprintf("[PharmaTrace] Novo alerta: %s", alert.Type)
	body := fmt.Sprintf(
		"<h2>Novo alerta registrado</h2>"+
			"<p><strong>Tipo:</strong> %s</p>"+
			"<p><strong>Mensagem:</strong> %s</p>"+
			"<p><strong>Registrado em:</strong> %s</p>",
		alert.Type, alert.Message, alert.CreatedAt.Format(time.RFC3339),
	)

	messageID, err := n.mailer.SendMail(ctx, to, subject, body)
	if err != nil {
		// Best-effort: registra e descarta.
		n.logger.Warn("Falha no envio de e-mail de alerta (descartada).", map[string]interface{}{
			"alert_id": alert.ID,
			"to":       to,
			"error":    err.Error(),
		})
		return
	}

	n.logger.Debug("Notificação de alerta enviada.", map[string]interface{}{
		"alert_id":   alert.ID,
		"message_id": messageID,
	})
}
