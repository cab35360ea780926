package domain

import "time"

// Sensor representa um dispositivo de monitoramento ambiental vinculado a uma empresa.
type Sensor struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	ProductID string `json:"product_id,omitempty"` // Opcional: produto monitorado
	Serial    string `json:"serial"`
}

// SensorReading é uma única medição de um sensor. Imutável após persistida.
// Humidity, Latitude e Longitude são ponteiros porque nem todo sensor os reporta.
type SensorReading struct {
	ID          string    `json:"id"`
	SensorID    string    `json:"sensor_id"`
	Temperature float64   `json:"temperature"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
