package domain

import "time"

// AlertType classifica o motivo de um alerta.
type AlertType string

const (
	AlertTempBreach     AlertType = "TEMP_BREACH"
	AlertHumidityBreach AlertType = "HUMIDITY_BREACH"
	AlertCounterfeit    AlertType = "COUNTERFEIT_SUSPECT"
	AlertDeliveryDelay  AlertType = "DELIVERY_DELAY"
)

// Valid verifica se o valor é um dos tipos de alerta conhecidos.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTempBreach, AlertHumidityBreach, AlertCounterfeit, AlertDeliveryDelay:
		return true
	}
	return false
}

// Alert representa um alerta operacional de uma empresa.
// Nasce sempre com Resolved=false; a resolução é uma mutação posterior.
type Alert struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"company_id"`
	Type       AlertType `json:"type"`
	Message    string    `json:"message"`
	ShipmentID string    `json:"shipment_id,omitempty"` // Opcional
	SensorID   string    `json:"sensor_id,omitempty"`   // Opcional
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"created_at"`
}
