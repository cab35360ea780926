package domain

import (
	"time"
)

// ShipmentStatus representa o estado do ciclo de vida de um carregamento.
// O status do carregamento sempre espelha o status do último checkpoint anexado.
type ShipmentStatus string

const (
	StatusCreated   ShipmentStatus = "CREATED"
	StatusInTransit ShipmentStatus = "IN_TRANSIT"
	StatusDelivered ShipmentStatus = "DELIVERED"
	StatusDelayed   ShipmentStatus = "DELAYED"
	StatusCancelled ShipmentStatus = "CANCELLED"
)

// Valid verifica se o valor é um dos status conhecidos.
func (s ShipmentStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusInTransit, StatusDelivered, StatusDelayed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal indica os status convencionalmente finais (DELIVERED e CANCELLED).
// Atenção: é apenas convenção — nenhuma transição é bloqueada por isso.
// Qualquer status pode suceder qualquer outro via checkpoint.
func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Shipment representa um carregamento farmacêutico rastreado (a Entidade principal).
// Checkpoints são append-only e ordenados pela hora de inserção.
type Shipment struct {
	ID          string         `json:"id"`
	Reference   string         `json:"reference"` // Código de referência do cliente
	BatchID     string         `json:"batch_id"`  // Lote de fabricação
	CompanyID   string         `json:"company_id"`
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Status      ShipmentStatus `json:"status"`
	Checkpoints []Checkpoint   `json:"checkpoints"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Checkpoint é um registro imutável da localização e do status de um
// carregamento em um ponto da viagem. O timestamp é atribuído pelo servidor
// no momento do append; nunca pelo cliente.
type Checkpoint struct {
	ID         string            `json:"id"`
	ShipmentID string            `json:"shipment_id"`
	Location   string            `json:"location"`
	Status     ShipmentStatus    `json:"status"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
