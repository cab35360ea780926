package domain

import "time"

// Company representa a empresa dona de carregamentos e sensores.
// O cadastro completo (perfil, usuários, etc.) vive fora deste núcleo;
// aqui só precisamos do contato para notificação de alertas.
type Company struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	CreatedAt    time.Time `json:"created_at"`
}
