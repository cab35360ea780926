package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// Mailer define o contrato de interface para o colaborador de e-mail.
// O pipeline de alertas depende apenas desta interface; o envio real fica na
// implementação concreta (SMTP) injetada pelo main.go.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, htmlBody string) (string, error)
}

// SMTPMailer é a implementação concreta da interface Mailer via SMTP simples.
type SMTPMailer struct {
	addr     string // host:porta do servidor SMTP
	host     string
	from     string
	username string
	password string
}

// NewSMTPMailer cria o cliente SMTP. username/password vazios desabilitam a
// autenticação (útil para relay local em desenvolvimento).
func NewSMTPMailer(host string, port int, from, username, password string) *SMTPMailer {
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		host:     host,
		from:     from,
		username: username,
		password: password,
	}
}

// SendMail monta a mensagem MIME (HTML) e a envia de forma síncrona.
// Retorna o Message-ID gerado para a mensagem.
func (m *SMTPMailer) SendMail(ctx context.Context, to, subject, htmlBody string) (string, error) {
	if m.host == "" {
		return "", fmt.Errorf("mailer: SMTP não configurado (SMTP_HOST vazio)")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), m.host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	// net/smtp não aceita context; respeitamos um cancelamento já ocorrido
	// antes de abrir a conexão.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return "", fmt.Errorf("mailer: falha no envio SMTP: %w", err)
	}

	return messageID, nil
}
